// Package postgres implements the order repository directly against the
// Postgres database behind the hosted REST endpoint, through pgx's
// database/sql driver.
package postgres

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/monteirok/popmart-tracker/internal/repository"
	"github.com/monteirok/popmart-tracker/internal/repository/sqlstore"
)

// Store wires the Postgres-backed order repository.
type Store struct {
	*sqlstore.Store
}

// NewStore constructs a Postgres-backed order repository over a pgx
// database/sql handle.
func NewStore(db *sql.DB, opts ...sqlstore.Option) *Store {
	return &Store{Store: sqlstore.New(db, Dialect{}, opts...)}
}

// Dialect is the Postgres flavour of sqlstore.Dialect.
type Dialect struct{}

func (Dialect) Name() string { return "postgres" }

func (Dialect) Placeholder(n int) string { return sqlstore.DollarPlaceholder(n) }

func (Dialect) Timestamp(t time.Time) any { return t }

// invalidTextRepresentation is raised for ids that are not UUIDs; such an id
// cannot name a row.
const invalidTextRepresentation = "22P02"

func (Dialect) Classify(err error) repository.Kind {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return repository.KindUnavailable
	}
	switch {
	case pgErr.Code == invalidTextRepresentation && strings.Contains(pgErr.Message, "uuid"):
		return repository.KindNotFound
	case strings.HasPrefix(pgErr.Code, "22"), strings.HasPrefix(pgErr.Code, "23"):
		return repository.KindRejected
	default:
		return repository.KindUnavailable
	}
}

var _ repository.OrderRepository = (*Store)(nil)
var _ repository.Pinger = (*Store)(nil)
