package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
  rate_limit_per_sec: 20
  rate_limit_burst: 10
database:
  driver: sqlite
  dsn: "file:test.db"
uploads:
  mode: inline
  max_size_mb: 2
push:
  vapid_public_key: pub
  vapid_private_key: priv
  subject: "mailto:ops@example.com"
worker_pool:
  size: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20.0, cfg.Server.RateLimitPerSec)
	assert.Equal(t, 10, cfg.Server.RateLimitBurst)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "inline", cfg.Uploads.Mode)
	assert.Equal(t, 2, cfg.Uploads.MaxSizeMB)
	assert.Equal(t, "pub", cfg.Push.PublicKey)
	assert.Equal(t, 4, cfg.WorkerPool.Size)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  dsn: "file:test.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Server.RateLimitPerSec)
	assert.Equal(t, 5, cfg.Server.RateLimitBurst)
	assert.Equal(t, 30, cfg.Server.CacheTTLSeconds)
	assert.Equal(t, "disk", cfg.Uploads.Mode)
	assert.Equal(t, "./uploads", cfg.Uploads.Dir)
	assert.Equal(t, 5, cfg.Uploads.MaxSizeMB)
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
