package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverPostgREST, cfg.Driver())
	assert.Equal(t, "orders", cfg.Store.Table)
	assert.Equal(t, 15*time.Second, cfg.Store.Timeout)
	assert.Equal(t, "@every 1m", cfg.Refresh.Schedule)
	assert.Equal(t, "CAD", cfg.UI.Currency)
	assert.Empty(t, cfg.Source)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.url")
	assert.Contains(t, err.Error(), "store.api_key")
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "tracker.yaml", `
store:
  driver: sqlite
database:
  path: /tmp/orders.db
log:
  level: debug
refresh:
  schedule: ""
`)
	t.Setenv("TRACKER_HTTP_ADDR", ":9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, DriverSQLite, cfg.Driver())
	assert.Equal(t, "/tmp/orders.db", cfg.DB.Path)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, "", cfg.Refresh.Schedule)
	assert.Equal(t, "DEBUG", cfg.Log.SlogLevel().String())
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLegacySupabaseEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("NEXT_PUBLIC_SUPABASE_ANON_KEY", "anon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://abc.supabase.co", cfg.Store.URL)
	assert.Equal(t, "anon", cfg.Store.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestDotEnvMapping(t *testing.T) {
	dir := t.TempDir()
	env := writeFile(t, dir, ".env.local", "NEXT_PUBLIC_SUPABASE_URL=https://dotenv.supabase.co\nLOG_LEVEL=warn\n")

	v := viper.New()
	setDefaults(v)
	require.NoError(t, loadDotEnv(v, []string{env, filepath.Join(dir, ".env")}))
	assert.Equal(t, "https://dotenv.supabase.co", v.GetString("store.url"))
	assert.Equal(t, "warn", v.GetString("log.level"))
}

func TestDotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	env := writeFile(t, dir, ".env", "LOG_LEVEL=warn\n")
	t.Setenv("TRACKER_LOG_LEVEL", "error")

	v := viper.New()
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	require.NoError(t, loadDotEnv(v, []string{env}))
	assert.Equal(t, "error", v.GetString("log.level"))
}

func TestDotEnvDoesNotOverrideLegacyEnv(t *testing.T) {
	dir := t.TempDir()
	env := writeFile(t, dir, ".env", "NEXT_PUBLIC_SUPABASE_URL=https://dotenv.supabase.co\nLOG_LEVEL=warn\n")
	t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "https://process.supabase.co")

	v := viper.New()
	require.NoError(t, v.BindEnv("store.url", "TRACKER_STORE_URL", "NEXT_PUBLIC_SUPABASE_URL", "SUPABASE_URL"))
	setDefaults(v)
	require.NoError(t, loadDotEnv(v, []string{env}))
	assert.Equal(t, "https://process.supabase.co", v.GetString("store.url"))
	assert.Equal(t, "warn", v.GetString("log.level"))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Store: StoreConfig{Driver: "memory"}}, ""},
		{"postgres without dsn", Config{Store: StoreConfig{Driver: "postgres"}}, "database.dsn"},
		{"unknown driver", Config{Store: StoreConfig{Driver: "mongo"}}, "unknown store.driver"},
		{"padded driver", Config{Store: StoreConfig{Driver: " SQLite "}, DB: DBConfig{Path: "data/tracker.db"}}, ""},
		{"padded driver still checked", Config{Store: StoreConfig{Driver: " postgres\n"}}, "database.dsn"},
		{"bad rate limit", Config{
			Store:     StoreConfig{Driver: "memory"},
			RateLimit: RateLimitConfig{Enabled: true},
		}, "rate_limit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
