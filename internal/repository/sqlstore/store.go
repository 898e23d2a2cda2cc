// Package sqlstore implements the order repository on database/sql. The
// SQLite and Postgres packages supply a Dialect and share everything else.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/monteirok/popmart-tracker/internal/order"
	"github.com/monteirok/popmart-tracker/internal/repository"
)

// Dialect covers the differences between SQL backends.
type Dialect interface {
	// Name is used in logs and metrics.
	Name() string
	// Placeholder returns the n-th (1-based) bind parameter marker.
	Placeholder(n int) string
	// Timestamp converts t into the value stored in created_at/updated_at.
	Timestamp(t time.Time) any
	// Classify maps a driver error to a store error kind.
	Classify(err error) repository.Kind
}

// Store is a repository.OrderRepository over a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	newID   func() string

	listQuery      string
	insertQuery    string
	replaceQuery   string
	setStatusQuery string
	deleteQuery    string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New builds a Store for db using dialect.
func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: dialect,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.listQuery = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	s.insertQuery = s.rebind(`INSERT INTO orders (id, order_number, product_name, product_image, status, order_date,
                  tracking_number, estimated_delivery, price, created_at, updated_at)
                  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
                  RETURNING ` + orderColumns)
	s.replaceQuery = s.rebind(`UPDATE orders
                  SET order_number = ?, product_name = ?, product_image = ?, status = ?, order_date = ?,
                      tracking_number = ?, estimated_delivery = ?, price = ?, updated_at = ?
                  WHERE id = ?
                  RETURNING ` + orderColumns)
	s.setStatusQuery = s.rebind(`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? RETURNING ` + orderColumns)
	s.deleteQuery = s.rebind(`DELETE FROM orders WHERE id = ?`)
	return s
}

// DB exposes the underlying handle, mostly for migrations and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the store's dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx, s.listQuery)
	if err != nil {
		return nil, s.wrap(repository.OpList, err)
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, s.wrap(repository.OpList, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap(repository.OpList, err)
	}
	return orders, nil
}

func (s *Store) Create(ctx context.Context, draft order.Draft) (order.Order, error) {
	now := s.dialect.Timestamp(s.now().UTC())
	row := s.db.QueryRowContext(ctx, s.insertQuery,
		s.newID(),
		draft.OrderNumber,
		draft.ProductName,
		nullableText(draft.ProductImage),
		string(draft.Status),
		dateValue(draft.OrderDate),
		nullableText(draft.TrackingNumber),
		nullableDate(draft.EstimatedDelivery),
		draft.Price.String(),
		now,
		now,
	)
	created, err := scanOrder(row)
	if err != nil {
		return order.Order{}, s.wrap(repository.OpCreate, err)
	}
	return created, nil
}

func (s *Store) Replace(ctx context.Context, id string, draft order.Draft) (order.Order, error) {
	row := s.db.QueryRowContext(ctx, s.replaceQuery,
		draft.OrderNumber,
		draft.ProductName,
		nullableText(draft.ProductImage),
		string(draft.Status),
		dateValue(draft.OrderDate),
		nullableText(draft.TrackingNumber),
		nullableDate(draft.EstimatedDelivery),
		draft.Price.String(),
		s.dialect.Timestamp(s.now().UTC()),
		id,
	)
	updated, err := scanOrder(row)
	if err != nil {
		return order.Order{}, s.wrap(repository.OpReplace, err)
	}
	return updated, nil
}

func (s *Store) SetStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	row := s.db.QueryRowContext(ctx, s.setStatusQuery, string(status), s.dialect.Timestamp(s.now().UTC()), id)
	updated, err := scanOrder(row)
	if err != nil {
		return order.Order{}, s.wrap(repository.OpSetStatus, err)
	}
	return updated, nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.deleteQuery, id); err != nil {
		wrapped := s.wrap(repository.OpRemove, err)
		if repository.IsNotFound(wrapped) {
			return nil
		}
		return wrapped
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return s.wrap(repository.OpPing, err)
	}
	return nil
}

func (s *Store) wrap(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.NewStoreError(op, repository.KindNotFound, nil)
	}
	if errors.Is(err, errCorruptRow) {
		return repository.NewStoreError(op, repository.KindUnavailable, err)
	}
	return repository.NewStoreError(op, s.dialect.Classify(err), err)
}

// rebind rewrites ? markers into the dialect's placeholders.
func (s *Store) rebind(query string) string {
	if s.dialect.Placeholder(1) == "?" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(s.dialect.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DollarPlaceholder renders $n markers.
func DollarPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}

const orderColumns = `id, order_number, product_name, product_image, status, order_date,
        tracking_number, estimated_delivery, price, created_at, updated_at`
