package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/monteirok/popmart-tracker/internal/config"
	"github.com/monteirok/popmart-tracker/internal/migrations"
	"github.com/monteirok/popmart-tracker/internal/repository"
	"github.com/monteirok/popmart-tracker/internal/repository/memory"
	"github.com/monteirok/popmart-tracker/internal/repository/postgres"
	"github.com/monteirok/popmart-tracker/internal/repository/postgrest"
	"github.com/monteirok/popmart-tracker/internal/repository/sqlite"
)

// Store is the order repository selected by store.driver.
type Store struct {
	Orders repository.OrderRepository
	Driver string
	// DB is set for the sql-backed drivers.
	DB *sql.DB
}

// Ping probes the backend when the driver supports it.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.Orders.(repository.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the database handle, if any.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// OpenDatabase opens the sql database of the sqlite or postgres driver and
// returns it with its migration dialect.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, string, error) {
	switch cfg.Driver() {
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.DB.Path)
		return db, migrations.DialectSQLite, err
	case config.DriverPostgres:
		db, err := OpenPostgres(ctx, cfg.DB.DSN, cfg.DB.MaxOpenConns)
		return db, migrations.DialectPostgres, err
	default:
		return nil, "", fmt.Errorf("store driver %q has no sql database", cfg.Store.Driver)
	}
}

// OpenStore builds the configured repository and wraps it with metrics and
// debug logging. A nil registerer skips metrics.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	store := &Store{Driver: cfg.Driver()}
	switch store.Driver {
	case config.DriverPostgREST:
		client, err := postgrest.New(postgrest.Options{
			BaseURL: cfg.Store.URL,
			APIKey:  cfg.Store.APIKey,
			Table:   cfg.Store.Table,
			Schema:  cfg.Store.Schema,
			Timeout: cfg.Store.Timeout,
		})
		if err != nil {
			return nil, err
		}
		store.Orders = client
	case config.DriverMemory:
		logger.Warn("using the in-memory order store; orders are lost on exit")
		store.Orders = memory.New()
	case config.DriverSQLite, config.DriverPostgres:
		db, dialect, err := OpenDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.DB.AutoMigrate {
			if err := migrations.Up(db, dialect); err != nil {
				db.Close()
				return nil, fmt.Errorf("migrate %s: %w", dialect, err)
			}
		}
		store.DB = db
		if dialect == migrations.DialectSQLite {
			store.Orders = sqlite.NewStore(db)
		} else {
			store.Orders = postgres.NewStore(db)
		}
	}

	var metrics *repository.StoreMetrics
	if reg != nil && cfg.Metrics.Enabled {
		metrics = repository.NewStoreMetrics(reg, cfg.Metrics.Namespace)
	}
	store.Orders = repository.NewInstrumented(store.Orders, store.Driver, metrics, logger)
	logger.Info("order store ready", "driver", store.Driver)
	return store, nil
}
