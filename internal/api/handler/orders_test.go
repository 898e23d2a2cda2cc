package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monteirok/popmart-tracker/internal/cache"
	"github.com/monteirok/popmart-tracker/internal/order"
	"github.com/monteirok/popmart-tracker/internal/repository"
	"github.com/monteirok/popmart-tracker/internal/repository/memory"
	"github.com/monteirok/popmart-tracker/internal/state"
	"github.com/monteirok/popmart-tracker/internal/support/logging"
)

const labubuJSON = `{"orderNumber":"PM001","productName":"Labubu","status":"pending","orderDate":"2024-01-01","price":12.99}`

type downRepo struct{ *memory.Repository }

func (*downRepo) ListAll(context.Context) ([]order.Order, error) {
	return nil, repository.NewStoreError(repository.OpList, repository.KindUnavailable, errors.New("dial tcp: refused"))
}

func (*downRepo) Create(context.Context, order.Draft) (order.Order, error) {
	return order.Order{}, repository.NewStoreError(repository.OpCreate, repository.KindUnavailable, errors.New("dial tcp: refused"))
}

func newServer(t *testing.T, repo repository.OrderRepository) (*state.Manager, http.Handler) {
	t.Helper()
	m := state.NewManager(repo, state.WithLogger(logging.Discard()))
	h := NewOrderHandler(m, nil, cache.NewStore(cache.Options{}), logging.Discard())
	r := chi.NewRouter()
	r.Route("/api/orders", h.Routes)
	return m, r
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCreateAndList(t *testing.T) {
	m, srv := newServer(t, memory.New())

	rec := do(t, srv, http.MethodPost, "/api/orders", labubuJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[order.Order](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "PM001", created.OrderNumber)
	assert.Equal(t, "12.99", created.Price.StringFixed(2))
	assert.Nil(t, created.TrackingNumber)

	rec = do(t, srv, http.MethodGet, "/api/orders?status=pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Orders []order.Order    `json:"orders"`
		Counts map[string]int   `json:"counts"`
		Chips  []map[string]any `json:"chips"`
		Total  int              `json:"total"`
	}](t, rec)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, created.ID, list.Orders[0].ID)
	assert.Equal(t, 1, list.Counts["pending"])
	assert.Equal(t, 1, list.Total)
	assert.Len(t, list.Chips, 2)

	rec = do(t, srv, http.MethodGet, "/api/orders?status=delivered", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No delivered orders")

	assert.Len(t, m.Snapshot().Orders, 1)
}

func TestListRejectsUnknownFilter(t *testing.T) {
	_, srv := newServer(t, memory.New())
	rec := do(t, srv, http.MethodGet, "/api/orders?status=lost", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateValidation(t *testing.T) {
	m, srv := newServer(t, memory.New())

	rec := do(t, srv, http.MethodPost, "/api/orders", `{"orderNumber":"","productName":"Labubu","price":"-1"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[struct {
		Action string            `json:"action"`
		Fields map[string]string `json:"fields"`
	}](t, rec)
	assert.Equal(t, "orders.create", body.Action)
	assert.Contains(t, body.Fields, "orderNumber")
	assert.Contains(t, body.Fields, "price")
	assert.Empty(t, m.Snapshot().Orders)

	rec = do(t, srv, http.MethodPost, "/api/orders", `{"bogus":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, srv, http.MethodPost, "/api/orders", ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateIsIdempotentPerKey(t *testing.T) {
	repo := memory.New()
	_, srv := newServer(t, repo)

	first := do(t, srv, http.MethodPost, "/api/orders", labubuJSON, IdempotencyHeader, "abc")
	require.Equal(t, http.StatusCreated, first.Code)
	again := do(t, srv, http.MethodPost, "/api/orders", labubuJSON, IdempotencyHeader, "abc")
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "true", again.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, decode[order.Order](t, first).ID, decode[order.Order](t, again).ID)
	assert.Equal(t, 1, repo.Len())

	other := do(t, srv, http.MethodPost, "/api/orders", labubuJSON, IdempotencyHeader, "def")
	require.Equal(t, http.StatusCreated, other.Code)
	assert.Equal(t, 2, repo.Len())
}

func TestUpdateStatusAndDelete(t *testing.T) {
	m, srv := newServer(t, memory.New())
	created := decode[order.Order](t, do(t, srv, http.MethodPost, "/api/orders", labubuJSON))

	rec := do(t, srv, http.MethodPatch, "/api/orders/"+created.ID+"/status", `{"status":"shipping"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, order.StatusShipping, decode[order.Order](t, rec).Status)

	rec = do(t, srv, http.MethodPatch, "/api/orders/"+created.ID+"/status", `{"status":"lost"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/orders/"+created.ID,
		`{"orderNumber":"PM001","productName":"Labubu Big","status":"delivered","orderDate":"2024-01-01","trackingNumber":"TN1","price":"15"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[order.Order](t, rec)
	assert.Equal(t, "Labubu Big", updated.ProductName)
	assert.Equal(t, "TN1", order.Value(updated.TrackingNumber))

	rec = do(t, srv, http.MethodGet, "/api/orders/"+created.ID+"/card", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Order #PM001")
	assert.Contains(t, rec.Body.String(), "aftership.com/track/TN1")

	rec = do(t, srv, http.MethodDelete, "/api/orders/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, m.Snapshot().Orders)

	rec = do(t, srv, http.MethodDelete, "/api/orders/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/orders/"+created.ID+"/card", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMissingOrder(t *testing.T) {
	_, srv := newServer(t, memory.New())
	rec := do(t, srv, http.MethodPut, "/api/orders/nope", labubuJSON)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to update order")
}

func TestStoreFailuresAreBadGateway(t *testing.T) {
	m, srv := newServer(t, &downRepo{memory.New()})

	rec := do(t, srv, http.MethodPost, "/api/orders/refresh", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "orders.refresh", body["action"])
	assert.Contains(t, body["error"], "failed to fetch orders")

	rec = do(t, srv, http.MethodPost, "/api/orders", labubuJSON)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to add order")
	assert.NotEmpty(t, m.Snapshot().Error)
}

func TestFlexStringAcceptsNumbersAndStrings(t *testing.T) {
	var body formBody
	require.NoError(t, json.Unmarshal([]byte(`{"price":12.5}`), &body))
	assert.Equal(t, "12.5", string(body.Price))
	require.NoError(t, json.Unmarshal([]byte(`{"price":"7"}`), &body))
	assert.Equal(t, "7", string(body.Price))
	require.NoError(t, json.Unmarshal([]byte(`{"price":null}`), &body))
	assert.Empty(t, string(body.Price))
}
