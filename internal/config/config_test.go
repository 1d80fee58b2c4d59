package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
  allowed_origins: ["https://example.com"]
  shutdown_timeout: 3s
catalog:
  source: sqlite
  path: /var/lib/portfolio.db
cache:
  redis_url: redis://localhost:6379/0
  ttl: 1m
log:
  level: debug
  development: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, SourceSQLite, cfg.Catalog.Source)
	assert.Equal(t, "/var/lib/portfolio.db", cfg.Catalog.Path)
	assert.Equal(t, 30*time.Second, cfg.Catalog.Timeout, "unset fields keep defaults")
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
catalog:
  source: static
`)
	t.Setenv("PORTFOLIO_ADDR", ":7000")
	t.Setenv("PORTFOLIO_CATALOG_SOURCE", "remote")
	t.Setenv("PORTFOLIO_CATALOG_URL", "https://example.com/projects")
	t.Setenv("PORTFOLIO_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, SourceRemote, cfg.Catalog.Source)
	assert.Equal(t, "https://example.com/projects", cfg.Catalog.URL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config")
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [unclosed"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse YAML")
	})

	t.Run("bad env duration", func(t *testing.T) {
		t.Setenv("PORTFOLIO_CACHE_TTL", "soon")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env:")
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := Load(writeConfig(t, "catalog:\n  source: ftp\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "empty addr", modify: func(c *Config) { c.Server.Addr = "" }, wantErr: "server.addr"},
		{name: "file without path", modify: func(c *Config) { c.Catalog.Source = SourceFile }, wantErr: "catalog.path"},
		{name: "sqlite without path", modify: func(c *Config) { c.Catalog.Source = SourceSQLite }, wantErr: "catalog.path"},
		{name: "remote without url", modify: func(c *Config) { c.Catalog.Source = SourceRemote }, wantErr: "catalog.url"},
		{name: "unknown source", modify: func(c *Config) { c.Catalog.Source = "ftp" }, wantErr: "unknown catalog.source"},
		{name: "negative ttl", modify: func(c *Config) { c.Cache.TTL = -time.Second }, wantErr: "cache.ttl"},
		{name: "bad level", modify: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
