package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverPostgREST = "postgrest"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
	DriverMemory    = "memory"
)

// Config 汇总应用的全部配置。
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	DB        DBConfig        `mapstructure:"database"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	UI        UIConfig        `mapstructure:"ui"`

	// Source is the config file that was read, empty when none was found.
	Source string `mapstructure:"-"`
}

// StoreConfig selects and configures the order store.
type StoreConfig struct {
	Driver  string        `mapstructure:"driver"`
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Table   string        `mapstructure:"table"`
	Schema  string        `mapstructure:"schema"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DBConfig 定义数据库配置。
type DBConfig struct {
	Path         string `mapstructure:"path"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

// HTTPConfig 定义 HTTP 服务配置。
type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
}

// LogConfig 定义日志配置。
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// MetricsConfig 定义 Prometheus 指标配置。
type MetricsConfig struct {
	Enabled   bool      `mapstructure:"enabled"`
	Namespace string    `mapstructure:"namespace"`
	Token     string    `mapstructure:"token"`
	Buckets   []float64 `mapstructure:"buckets"`
}

// RefreshConfig drives the periodic reload in serve mode. An empty schedule
// disables it.
type RefreshConfig struct {
	Schedule string        `mapstructure:"schedule"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig bounds API requests per client address.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// UIConfig holds display settings shared by the TUI and API cards.
type UIConfig struct {
	Currency    string `mapstructure:"currency"`
	Locale      string `mapstructure:"locale"`
	TrackingURL string `mapstructure:"tracking_url"`
}

// Validate reports missing settings for the selected driver.
func (c *Config) Validate() error {
	var errs []error
	switch c.Driver() {
	case DriverPostgREST:
		if strings.TrimSpace(c.Store.URL) == "" {
			errs = append(errs, errors.New("store.url is required for the postgrest driver"))
		}
		if strings.TrimSpace(c.Store.APIKey) == "" {
			errs = append(errs, errors.New("store.api_key is required for the postgrest driver"))
		}
	case DriverPostgres:
		if strings.TrimSpace(c.DB.DSN) == "" {
			errs = append(errs, errors.New("database.dsn is required for the postgres driver"))
		}
	case DriverSQLite:
		if strings.TrimSpace(c.DB.Path) == "" {
			errs = append(errs, errors.New("database.path is required for the sqlite driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("rate_limit.requests and rate_limit.window must be positive"))
	}
	return errors.Join(errs...)
}

// Driver returns the normalized store driver name.
func (c *Config) Driver() string {
	return strings.ToLower(strings.TrimSpace(c.Store.Driver))
}

func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
