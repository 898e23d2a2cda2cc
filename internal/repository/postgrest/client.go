// Package postgrest implements the order repository against a hosted
// PostgREST endpoint (the Supabase REST interface of the orders table).
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/monteirok/popmart-tracker/internal/order"
	"github.com/monteirok/popmart-tracker/internal/repository"
)

const (
	defaultTable   = "orders"
	defaultTimeout = 15 * time.Second
	restPrefix     = "/rest/v1/"
	maxErrorBody   = 64 << 10
)

// Options configures the PostgREST client.
type Options struct {
	// BaseURL is the project URL, e.g. https://xyz.supabase.co.
	BaseURL string
	// APIKey is the public (anon) key sent as apikey and bearer token.
	APIKey string
	// Table defaults to "orders".
	Table string
	// Schema selects a non-default schema through Accept/Content-Profile.
	Schema string
	// Timeout bounds each request when HTTPClient is nil.
	Timeout    time.Duration
	HTTPClient *http.Client
	// Now stamps updated_at on writes; defaults to time.Now.
	Now func() time.Time
}

// Client is a repository.OrderRepository backed by PostgREST.
type Client struct {
	endpoint *url.URL
	apiKey   string
	schema   string
	http     *http.Client
	now      func() time.Time
}

// New validates opts and builds a Client. Missing URL or key is an error.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("postgrest: base url is required")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("postgrest: api key is required")
	}
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("postgrest: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("postgrest: base url %q must be absolute", opts.BaseURL)
	}
	table := strings.TrimSpace(opts.Table)
	if table == "" {
		table = defaultTable
	}
	endpoint := base.JoinPath(restPrefix, table)

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   opts.APIKey,
		schema:   strings.TrimSpace(opts.Schema),
		http:     httpClient,
		now:      now,
	}, nil
}

// ListAll fetches every row ordered by created_at descending.
func (c *Client) ListAll(ctx context.Context) ([]order.Order, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")

	var rows []row
	if err := c.do(ctx, repository.OpList, http.MethodGet, q, nil, &rows); err != nil {
		return nil, err
	}
	orders, err := rowsToOrders(rows)
	if err != nil {
		return nil, repository.NewStoreError(repository.OpList, repository.KindUnavailable, err)
	}
	return orders, nil
}

// Create inserts a draft and returns the stored representation.
func (c *Client) Create(ctx context.Context, draft order.Draft) (order.Order, error) {
	q := url.Values{}
	q.Set("select", "*")

	var rows []row
	if err := c.do(ctx, repository.OpCreate, http.MethodPost, q, []row{rowFromDraft(draft)}, &rows); err != nil {
		return order.Order{}, err
	}
	return single(repository.OpCreate, rows)
}

// Replace overwrites all mutable columns of id.
func (c *Client) Replace(ctx context.Context, id string, draft order.Draft) (order.Order, error) {
	body := rowFromDraft(draft)
	updatedAt := c.now().UTC()
	body.UpdatedAt = &updatedAt

	var rows []row
	if err := c.do(ctx, repository.OpReplace, http.MethodPatch, byID(id), body, &rows); err != nil {
		return order.Order{}, err
	}
	return single(repository.OpReplace, rows)
}

// SetStatus patches status and updated_at of id.
func (c *Client) SetStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	body := statusPatch{Status: string(status), UpdatedAt: c.now().UTC()}

	var rows []row
	if err := c.do(ctx, repository.OpSetStatus, http.MethodPatch, byID(id), body, &rows); err != nil {
		return order.Order{}, err
	}
	return single(repository.OpSetStatus, rows)
}

// Remove deletes id. Zero affected rows and 404 both count as success.
func (c *Client) Remove(ctx context.Context, id string) error {
	err := c.do(ctx, repository.OpRemove, http.MethodDelete, byID(id), nil, nil)
	if repository.IsNotFound(err) {
		return nil
	}
	return err
}

// Ping issues a minimal read to check URL, key and table.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	var rows []row
	return c.do(ctx, repository.OpPing, http.MethodGet, q, nil, &rows)
}

func byID(id string) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("select", "*")
	return q
}

func single(op string, rows []row) (order.Order, error) {
	if len(rows) == 0 {
		return order.Order{}, repository.NewStoreError(op, repository.KindNotFound, nil)
	}
	o, err := rows[0].toOrder()
	if err != nil {
		return order.Order{}, repository.NewStoreError(op, repository.KindUnavailable, err)
	}
	return o, nil
}

func (c *Client) do(ctx context.Context, op, method string, query url.Values, body, dest any) error {
	target := *c.endpoint
	target.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return repository.NewStoreError(op, repository.KindRejected, fmt.Errorf("encode body: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return repository.NewStoreError(op, repository.KindUnavailable, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}
	if c.schema != "" {
		if method == http.MethodGet {
			req.Header.Set("Accept-Profile", c.schema)
		} else {
			req.Header.Set("Content-Profile", c.schema)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return repository.NewStoreError(op, repository.KindUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(op, resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return repository.NewStoreError(op, repository.KindUnavailable, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
