// Package state holds the in-memory order list shared by every front end and
// keeps it consistent with the order store.
//
// The Manager is the single source of truth for what the presentation layer
// shows. Every operation makes exactly one store call; on success the
// authoritative record returned by the store is merged into the list, on
// failure the list is left untouched, the error message is recorded and the
// error is returned to the caller.
//
// Concurrent operations are not sequenced. Each completion is applied
// independently and the last one to finish wins; in particular two
// overlapping Load calls may finish out of order, in which case the older
// response replaces the newer one. The mutex only guards the merge and is
// never held across a store call.
package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/monteirok/popmart-tracker/internal/order"
	"github.com/monteirok/popmart-tracker/internal/repository"
	"github.com/monteirok/popmart-tracker/internal/support/logging"
)

// Snapshot is a copy of the manager state at one point in time.
type Snapshot struct {
	// Orders is newest-created first.
	Orders  []order.Order
	Loading bool
	// Error is the last failure message, empty when none.
	Error string
	// LoadedAt is the completion time of the last successful Load.
	LoadedAt time.Time
}

// Observer receives a snapshot after every state change.
type Observer func(Snapshot)

// Manager owns the order list and mediates store access.
type Manager struct {
	repo   repository.OrderRepository
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	orders    []order.Order
	inflight  int
	lastErr   string
	loadedAt  time.Time
	observers map[int]Observer
	nextID    int
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for failed operations.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the clock used for LoadedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager builds a Manager over repo. The list starts empty; call Load to
// populate it.
func NewManager(repo repository.OrderRepository, opts ...Option) *Manager {
	m := &Manager{
		repo:      repo,
		logger:    logging.Discard(),
		now:       time.Now,
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load fetches the full order list and replaces the local one. On failure
// the previous list is kept. Loading is reported while any Load is in flight.
func (m *Manager) Load(ctx context.Context) error {
	m.update(func() { m.inflight++ })

	orders, err := m.repo.ListAll(ctx)
	if err != nil {
		return m.fail(func() { m.inflight-- }, "failed to fetch orders", err)
	}

	fresh := make([]order.Order, len(orders))
	for i, o := range orders {
		fresh[i] = o.Clone()
	}
	m.update(func() {
		m.inflight--
		m.orders = fresh
		m.lastErr = ""
		m.loadedAt = m.now()
	})
	return nil
}

// Add persists draft and prepends the stored record. Input validation is
// the caller's job.
func (m *Manager) Add(ctx context.Context, draft order.Draft) (order.Order, error) {
	created, err := m.repo.Create(ctx, draft)
	if err != nil {
		return order.Order{}, m.fail(nil, "failed to add order", err)
	}

	m.update(func() {
		// A Load that finished after the insert may already list the record.
		next := make([]order.Order, 0, len(m.orders)+1)
		next = append(next, created.Clone())
		for _, o := range m.orders {
			if o.ID != created.ID {
				next = append(next, o)
			}
		}
		m.orders = next
	})
	return created.Clone(), nil
}

// Update replaces every mutable field of id. The entry keeps its position;
// an id that is not in the local list leaves the list as is.
func (m *Manager) Update(ctx context.Context, id string, draft order.Draft) (order.Order, error) {
	updated, err := m.repo.Replace(ctx, id, draft)
	if err != nil {
		return order.Order{}, m.fail(nil, "failed to update order", err)
	}
	m.update(func() { m.replaceLocal(id, updated) })
	return updated.Clone(), nil
}

// UpdateStatus changes only the status of id, with the same merge rules as
// Update.
func (m *Manager) UpdateStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	updated, err := m.repo.SetStatus(ctx, id, status)
	if err != nil {
		return order.Order{}, m.fail(nil, "failed to update order status", err)
	}
	m.update(func() { m.replaceLocal(id, updated) })
	return updated.Clone(), nil
}

// Delete removes id from the store and then from the local list. An id with
// no local entry is not an error.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.repo.Remove(ctx, id); err != nil {
		return m.fail(nil, "failed to delete order", err)
	}

	m.mu.Lock()
	kept := make([]order.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	changed := len(kept) != len(m.orders)
	if changed {
		m.orders = kept
	}
	m.mu.Unlock()

	if changed {
		m.notify()
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Find returns the local copy of id.
func (m *Manager) Find(id string) (order.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return o.Clone(), true
		}
	}
	return order.Order{}, false
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. Observers run synchronously on the goroutine that made
// the change and must not block.
func (m *Manager) Subscribe(fn Observer) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.observers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.observers, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) replaceLocal(id string, updated order.Order) {
	for i := range m.orders {
		if m.orders[i].ID == id {
			next := make([]order.Order, len(m.orders))
			copy(next, m.orders)
			next[i] = updated.Clone()
			m.orders = next
			return
		}
	}
}

// fail records the failure message, applies extra under the lock and returns
// the wrapped error.
func (m *Manager) fail(extra func(), action string, err error) error {
	wrapped := fmt.Errorf("%s: %w", action, err)
	m.logger.Error(action, slog.Any("error", err), slog.String("kind", repository.KindOf(err).String()))
	m.update(func() {
		if extra != nil {
			extra()
		}
		m.lastErr = wrapped.Error()
	})
	return wrapped
}

// update applies fn under the lock and notifies observers afterwards.
func (m *Manager) update(fn func()) {
	m.mu.Lock()
	fn()
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) notify() {
	m.mu.Lock()
	snap := m.snapshotLocked()
	observers := make([]Observer, 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	orders := make([]order.Order, len(m.orders))
	for i, o := range m.orders {
		orders[i] = o.Clone()
	}
	return Snapshot{
		Orders:   orders,
		Loading:  m.inflight > 0,
		Error:    m.lastErr,
		LoadedAt: m.loadedAt,
	}
}
