package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, ":8000", cfg.HTTPServerAddr)
	assert.Equal(t, SourceJSON, cfg.Catalog.Source)
	assert.Equal(t, 500*time.Millisecond, cfg.Catalog.WatchDebounce)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, map[string]string{
		"ml-api-key-admin":    "admin",
		"ml-api-key-user":     "user",
		"ml-api-key-readonly": "readonly",
	}, cfg.APIKeyRoles())
	assert.Contains(t, cfg.Security.PublicRoutes, "/api/v1/health")
	assert.Equal(t, []string{"127.0.0.1", "::1"}, cfg.Security.TrustedProxies)
	assert.Equal(t, 3*time.Second, cfg.Broker.UpdatesDebounce)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"), true)
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
http_server_addr: ":9000"
catalog:
  source: csv
  path: /data/items.csv
  watch: true
  reload_interval: 5m
rate_limit:
  backend: redis
  requests: 10
  window: 30s
security:
  api_keys:
    - "k1:admin"
    - "k2"
  trusted_proxies:
    - 10.0.0.0/8
broker:
  updates_debounce: 10s
`)

	cfg, err := load(viper.New(), path, true)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, ":9000", cfg.HTTPServerAddr)
	assert.Equal(t, SourceCSV, cfg.Catalog.Source)
	assert.Equal(t, "/data/items.csv", cfg.Catalog.Path)
	assert.True(t, cfg.Catalog.Watch)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.ReloadInterval)
	assert.Equal(t, RateLimitRedis, cfg.RateLimit.Backend)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, map[string]string{"k1": "admin", "k2": "user"}, cfg.APIKeyRoles())
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Security.TrustedProxies)
	assert.Equal(t, 10*time.Second, cfg.Broker.UpdatesDebounce)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeConfig(t, "unknown_key: 1\n")

	_, err := load(viper.New(), path, true)
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CATALOG_HTTP_SERVER_ADDR", ":7000")
	t.Setenv("CATALOG_RATE_LIMIT_REQUESTS", "5")

	cfg, err := load(viper.New(), "", false)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTPServerAddr)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"UnknownSource", "catalog:\n  source: ftp\n"},
		{"PostgresWithoutDSN", "catalog:\n  source: postgres\n"},
		{"KafkaWithoutBrokers", "catalog:\n  source: kafka\n"},
		{"UnknownBackend", "rate_limit:\n  backend: memcached\n"},
		{"ZeroRequests", "rate_limit:\n  requests: 0\n"},
		{"BadTrustedProxy", "security:\n  trusted_proxies:\n    - not-an-ip\n"},
		{"BadTrustedPrefix", "security:\n  trusted_proxies:\n    - 10.0.0.0/99\n"},
		{"ZeroUpdatesDebounce", "broker:\n  updates_debounce: 0s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(viper.New(), writeConfig(t, tt.body), true)
			assert.Error(t, err)
		})
	}
}
