package sqlite

import (
	"database/sql"
	"errors"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/monteirok/popmart-tracker/internal/repository"
	"github.com/monteirok/popmart-tracker/internal/repository/sqlstore"
)

// Store wires the SQLite-backed order repository.
type Store struct {
	*sqlstore.Store
}

// NewStore constructs a SQLite-backed order repository. The schema must
// already be migrated.
func NewStore(db *sql.DB, opts ...sqlstore.Option) *Store {
	return &Store{Store: sqlstore.New(db, Dialect{}, opts...)}
}

// Dialect is the SQLite flavour of sqlstore.Dialect. Timestamps are stored
// as unix microseconds so created_at ordering survives sub-second writes.
type Dialect struct{}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) Timestamp(t time.Time) any { return t.UnixMicro() }

func (Dialect) Classify(err error) repository.Kind {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		// Extended result codes keep the primary code in the low byte.
		if sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return repository.KindRejected
		}
	}
	return repository.KindUnavailable
}

var _ repository.OrderRepository = (*Store)(nil)
var _ repository.Pinger = (*Store)(nil)
