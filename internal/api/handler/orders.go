package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/monteirok/popmart-tracker/internal/cache"
	"github.com/monteirok/popmart-tracker/internal/order"
	"github.com/monteirok/popmart-tracker/internal/state"
	"github.com/monteirok/popmart-tracker/internal/view"
)

// IdempotencyHeader lets clients retry an order create without duplicating it.
const IdempotencyHeader = "Idempotency-Key"

const idempotencyTTL = 10 * time.Minute

// OrderHandler exposes the order list endpoints over a state manager.
type OrderHandler struct {
	orders    *state.Manager
	formatter *view.Formatter
	replays   cache.Store
	logger    *slog.Logger
}

// NewOrderHandler constructs an order handler. A nil replay store disables
// idempotent creates; a nil formatter uses the default card format.
func NewOrderHandler(orders *state.Manager, formatter *view.Formatter, replays cache.Store, logger *slog.Logger) *OrderHandler {
	if formatter == nil {
		formatter = view.DefaultFormatter()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if replays != nil {
		replays = replays.Namespace("idempotency")
	}
	return &OrderHandler{orders: orders, formatter: formatter, replays: replays, logger: logger}
}

// Routes mounts the handler on r.
func (h *OrderHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/refresh", h.Refresh)
	r.Route("/{id}", func(item chi.Router) {
		item.Put("/", h.Update)
		item.Delete("/", h.Delete)
		item.Patch("/status", h.UpdateStatus)
		item.Get("/card", h.Card)
	})
}

// List returns the filtered list page: orders, chips and per-status counts.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := view.ParseFilter(r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "orders.list", err)
		return
	}
	respondJSON(w, http.StatusOK, view.NewList(h.orders.Snapshot(), filter))
}

// Refresh reloads the list from the store.
func (h *OrderHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Load(r.Context()); err != nil {
		respondStoreError(w, "orders.refresh", err)
		return
	}
	respondJSON(w, http.StatusOK, view.NewList(h.orders.Snapshot(), view.All))
}

// Create adds an order from a form body.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	const action = "orders.create"
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key != "" && h.replays != nil {
		var cached order.Order
		found, err := h.replays.GetJSON(r.Context(), key, &cached)
		if err != nil {
			h.logger.Warn("discarding unreadable idempotent replay", "key", key, "error", err)
		}
		if found && err == nil {
			w.Header().Set("Idempotent-Replayed", "true")
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	draft, ok := h.decodeDraft(w, r, action)
	if !ok {
		return
	}
	created, err := h.orders.Add(r.Context(), draft)
	if err != nil {
		respondStoreError(w, action, err)
		return
	}
	if key != "" && h.replays != nil {
		if err := h.replays.SetJSON(r.Context(), key, created, idempotencyTTL); err != nil {
			h.logger.Warn("failed to remember idempotent create", "key", key, "error", err)
		}
	}
	respondJSON(w, http.StatusCreated, created)
}

// Update replaces every field of an order.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	const action = "orders.update"
	draft, ok := h.decodeDraft(w, r, action)
	if !ok {
		return
	}
	updated, err := h.orders.Update(r.Context(), chi.URLParam(r, "id"), draft)
	if err != nil {
		respondStoreError(w, action, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// UpdateStatus changes one order's status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	const action = "orders.status"
	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, action, err)
		return
	}
	status, err := order.ParseStatus(payload.Status)
	if err != nil {
		respondValidation(w, action, view.ValidationErrors{view.FieldStatus: err.Error()})
		return
	}
	updated, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		respondStoreError(w, action, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Delete removes an order. Deleting an unknown id still succeeds.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, "orders.delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Card renders one order of the current list as display data.
func (h *OrderHandler) Card(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, ok := h.orders.Find(id)
	if !ok {
		respondError(w, http.StatusNotFound, "orders.card", errors.New("order "+id+" is not in the current list"))
		return
	}
	card := h.formatter.Card(o)
	respondJSON(w, http.StatusOK, map[string]any{
		"card": card,
		"rows": card.Rows(),
	})
}

func (h *OrderHandler) decodeDraft(w http.ResponseWriter, r *http.Request, action string) (order.Draft, bool) {
	var body formBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, action, err)
		return order.Draft{}, false
	}
	draft, err := body.form().Draft()
	if err != nil {
		var verrs view.ValidationErrors
		if errors.As(err, &verrs) {
			respondValidation(w, action, verrs)
		} else {
			respondError(w, http.StatusBadRequest, action, err)
		}
		return order.Draft{}, false
	}
	return draft, true
}

// formBody is the wire shape of view.Form. Price may be sent as a JSON
// number or a string.
type formBody struct {
	OrderNumber       string     `json:"orderNumber"`
	ProductName       string     `json:"productName"`
	ProductImage      string     `json:"productImage"`
	Status            string     `json:"status"`
	OrderDate         string     `json:"orderDate"`
	TrackingNumber    string     `json:"trackingNumber"`
	EstimatedDelivery string     `json:"estimatedDelivery"`
	Price             flexString `json:"price"`
}

func (b formBody) form() view.Form {
	f := view.NewForm()
	f.OrderNumber = b.OrderNumber
	f.ProductName = b.ProductName
	f.ProductImage = b.ProductImage
	if b.Status != "" {
		f.Status = b.Status
	}
	if b.OrderDate != "" {
		f.OrderDate = b.OrderDate
	}
	f.TrackingNumber = b.TrackingNumber
	f.EstimatedDelivery = b.EstimatedDelivery
	f.Price = string(b.Price)
	return f
}

// flexString accepts a JSON string, number or null.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = flexString(raw)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*s = flexString(n.String())
	}
	return nil
}
