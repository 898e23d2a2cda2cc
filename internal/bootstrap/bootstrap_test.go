package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monteirok/popmart-tracker/internal/config"
	"github.com/monteirok/popmart-tracker/internal/migrations"
	"github.com/monteirok/popmart-tracker/internal/order"
	"github.com/monteirok/popmart-tracker/internal/support/logging"
)

func baseConfig(driver string) *config.Config {
	return &config.Config{
		Store:   config.StoreConfig{Driver: driver, Table: "orders", Timeout: time.Second},
		Metrics: config.MetricsConfig{Enabled: true, Namespace: "test"},
		UI:      config.UIConfig{Currency: "CAD", Locale: "en-CA", TrackingURL: "https://t.example/%s"},
	}
}

func TestOpenStoreMemory(t *testing.T) {
	reg := prometheus.NewRegistry()
	store, err := OpenStore(context.Background(), baseConfig(config.DriverMemory), logging.Discard(), reg)
	require.NoError(t, err)
	defer store.Close()

	assert.Nil(t, store.DB)
	assert.NoError(t, store.Ping(context.Background()))
	_, err = store.Orders.ListAll(context.Background())
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "test_store_calls_total")
}

func TestOpenStoreSQLiteMigrates(t *testing.T) {
	cfg := baseConfig(config.DriverSQLite)
	cfg.DB = config.DBConfig{Path: filepath.Join(t.TempDir(), "nested", "tracker.db"), AutoMigrate: true}

	store, err := OpenStore(context.Background(), cfg, logging.Discard(), nil)
	require.NoError(t, err)
	defer store.Close()
	require.NotNil(t, store.DB)

	version, err := migrations.Version(store.DB, migrations.DialectSQLite)
	require.NoError(t, err)
	assert.Positive(t, version)

	created, err := store.Orders.Create(context.Background(), order.Draft{
		OrderNumber: "PM001",
		ProductName: "Labubu",
		Status:      order.StatusPending,
		OrderDate:   order.MustParseDate("2024-01-01"),
		Price:       decimal.RequireFromString("12.99"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
}

func TestOpenStoreRejectsIncompleteConfig(t *testing.T) {
	_, err := OpenStore(context.Background(), baseConfig(config.DriverPostgREST), logging.Discard(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.url")

	_, err = OpenStore(context.Background(), baseConfig("mongo"), logging.Discard(), nil)
	assert.Error(t, err)
}

func TestOpenDatabaseRequiresSQLDriver(t *testing.T) {
	_, _, err := OpenDatabase(context.Background(), baseConfig(config.DriverMemory))
	assert.Error(t, err)
}

func TestBuildInfrastructure(t *testing.T) {
	infra, err := BuildInfrastructure(baseConfig(config.DriverMemory))
	require.NoError(t, err)
	assert.NotNil(t, infra.Cache)
	assert.NotNil(t, infra.Registry)
	assert.Equal(t, "https://t.example/TN1", infra.Formatter.TrackingLink("TN1"))

	bad := baseConfig(config.DriverMemory)
	bad.UI.TrackingURL = "https://t.example/"
	_, err = BuildInfrastructure(bad)
	assert.Error(t, err)
}

func TestNewHTTPServerDefaults(t *testing.T) {
	srv := NewHTTPServer(config.HTTPConfig{Addr: ":0"}, nil)
	assert.Equal(t, 10*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, ":0", srv.Addr)
}
