package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from defaults, the config file, legacy .env files
// and TRACKER_* environment variables. An explicit file must exist; otherwise
// config.yaml is searched in . and /etc/popmart-tracker/.
func Load(file string) (*Config, error) {
	v := viper.New()

	// Default settings
	setDefaults(v)

	// Config file settings
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/popmart-tracker/")
	}

	// Environment variable settings
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"store.url", "store.api_key", "database.dsn"} {
		names := append([]string{envName(key)}, legacyEnvNames[key]...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	// 1. Try to read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Missing config file is fine, env and defaults still apply.
	}

	// 2. Load .env files (compatibility with the web deployment)
	if err := loadDotEnv(v, dotEnvCandidates()); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", DriverPostgREST)
	v.SetDefault("store.table", "orders")
	v.SetDefault("store.timeout", "15s")

	v.SetDefault("database.path", "data/tracker.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("http.addr", "127.0.0.1:8080")
	v.SetDefault("http.shutdown_timeout", "15s")
	v.SetDefault("http.read_header_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "popmart_tracker")

	v.SetDefault("refresh.schedule", "@every 1m")
	v.SetDefault("refresh.timeout", "30s")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 120)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("ui.currency", "CAD")
	v.SetDefault("ui.locale", "en-CA")
	v.SetDefault("ui.tracking_url", "https://www.aftership.com/track/%s")
}

func dotEnvCandidates() []string {
	var files []string
	for _, dir := range []string{".", ".."} {
		files = append(files, filepath.Join(dir, ".env"), filepath.Join(dir, ".env.local"))
	}
	return files
}

func loadDotEnv(v *viper.Viper, candidates []string) error {
	for _, file := range candidates {
		file = filepath.Clean(file)
		if _, err := os.Stat(file); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("stat %s: %w", file, err)
		}

		// Separate instance so dotenv keys never leak into the main tree.
		envViper := viper.New()
		envViper.SetConfigFile(file)
		envViper.SetConfigType("env")
		if err := envViper.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		bindLegacyEnv(v, envViper)
	}
	return nil
}

// legacyEnvNames are the process variables of the web deployment that bind
// directly to a config key.
var legacyEnvNames = map[string][]string{
	"store.url":     {"NEXT_PUBLIC_SUPABASE_URL", "SUPABASE_URL"},
	"store.api_key": {"NEXT_PUBLIC_SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY"},
	"database.dsn":  {"DATABASE_URL"},
}

// envSet reports whether a process variable already supplies key.
func envSet(key string) bool {
	for _, name := range append([]string{envName(key)}, legacyEnvNames[key]...) {
		if _, ok := os.LookupEnv(name); ok {
			return true
		}
	}
	return false
}

// bindLegacyEnv maps flat dotenv variables onto config keys. Values from the
// config file or process variables are left alone.
func bindLegacyEnv(target *viper.Viper, source *viper.Viper) {
	mappings := map[string]string{
		"NEXT_PUBLIC_SUPABASE_URL":      "store.url",
		"SUPABASE_URL":                  "store.url",
		"NEXT_PUBLIC_SUPABASE_ANON_KEY": "store.api_key",
		"SUPABASE_ANON_KEY":             "store.api_key",
		"STORE_DRIVER":                  "store.driver",
		"DATABASE_URL":                  "database.dsn",
		"DB_PATH":                       "database.path",
		"HTTP_ADDR":                     "http.addr",
		"LOG_LEVEL":                     "log.level",
		"LOG_FORMAT":                    "log.format",
		"METRICS_TOKEN":                 "metrics.token",
		"REFRESH_SCHEDULE":              "refresh.schedule",
	}

	for oldKey, newKey := range mappings {
		if val := source.GetString(oldKey); val != "" {
			if target.InConfig(newKey) || envSet(newKey) {
				continue
			}
			target.Set(newKey, val)
		}
	}
}

func envName(key string) string {
	return "TRACKER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
