// Package memory implements an in-memory order repository.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/monteirok/popmart-tracker/internal/order"
	"github.com/monteirok/popmart-tracker/internal/repository"
)

type entry struct {
	order order.Order
	seq   uint64
}

// Repository provides an in-memory implementation of repository.OrderRepository.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]entry
	seq    uint64
	now    func() time.Time
}

// Option customizes a Repository.
type Option func(*Repository)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a new in-memory repository.
func New(opts ...Option) *Repository {
	r := &Repository{orders: make(map[string]entry), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListAll returns all orders, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.NewStoreError(repository.OpList, repository.KindUnavailable, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]entry, 0, len(r.orders))
	for _, e := range r.orders {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].order.CreatedAt.Equal(entries[j].order.CreatedAt) {
			return entries[i].order.CreatedAt.After(entries[j].order.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})
	out := make([]order.Order, len(entries))
	for i, e := range entries {
		out[i] = e.order.Clone()
	}
	return out, nil
}

// Create stores the draft under a fresh id.
func (r *Repository) Create(ctx context.Context, draft order.Draft) (order.Order, error) {
	if err := ctx.Err(); err != nil {
		return order.Order{}, repository.NewStoreError(repository.OpCreate, repository.KindUnavailable, err)
	}
	if err := checkRequired(draft); err != nil {
		return order.Order{}, repository.NewStoreError(repository.OpCreate, repository.KindRejected, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	r.seq++
	created := order.Order{
		ID:        uuid.NewString(),
		Draft:     draft.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.orders[created.ID] = entry{order: created, seq: r.seq}
	return created.Clone(), nil
}

// Replace overwrites every mutable field of id.
func (r *Repository) Replace(ctx context.Context, id string, draft order.Draft) (order.Order, error) {
	if err := ctx.Err(); err != nil {
		return order.Order{}, repository.NewStoreError(repository.OpReplace, repository.KindUnavailable, err)
	}
	if err := checkRequired(draft); err != nil {
		return order.Order{}, repository.NewStoreError(repository.OpReplace, repository.KindRejected, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.orders[id]
	if !ok {
		return order.Order{}, repository.NewStoreError(repository.OpReplace, repository.KindNotFound, nil)
	}
	e.order.Draft = draft.Clone()
	e.order.UpdatedAt = r.now().UTC()
	r.orders[id] = e
	return e.order.Clone(), nil
}

// SetStatus changes only the status of id.
func (r *Repository) SetStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	if err := ctx.Err(); err != nil {
		return order.Order{}, repository.NewStoreError(repository.OpSetStatus, repository.KindUnavailable, err)
	}
	if !status.Valid() {
		return order.Order{}, repository.NewStoreError(repository.OpSetStatus, repository.KindRejected, errInvalidStatus(status))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.orders[id]
	if !ok {
		return order.Order{}, repository.NewStoreError(repository.OpSetStatus, repository.KindNotFound, nil)
	}
	e.order.Status = status
	e.order.UpdatedAt = r.now().UTC()
	r.orders[id] = e
	return e.order.Clone(), nil
}

// Remove deletes id; a missing id is not an error.
func (r *Repository) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return repository.NewStoreError(repository.OpRemove, repository.KindUnavailable, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

// Ping always succeeds.
func (r *Repository) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored orders.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

// checkRequired mirrors the NOT NULL and CHECK constraints of the SQL schema.
func checkRequired(d order.Draft) error {
	switch {
	case strings.TrimSpace(d.OrderNumber) == "":
		return errRequired("order_number")
	case strings.TrimSpace(d.ProductName) == "":
		return errRequired("product_name")
	case !d.Status.Valid():
		return errInvalidStatus(d.Status)
	case d.OrderDate.IsZero():
		return errRequired("order_date")
	case d.Price.IsNegative():
		return errConstraint("price must be non-negative")
	}
	return nil
}
