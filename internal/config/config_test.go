package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "dojo.db", cfg.Database.Path)
	assert.Equal(t, "file://migrations", cfg.Database.MigrationsPath)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Equal(t, 5.0, cfg.RateLimit.Score)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
database:
  path: /var/lib/dojo/dojo.db
server:
  port: 9090
log:
  level: debug
rate_limit:
  score: 1.5
  burst: 3
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/dojo/dojo.db", cfg.Database.Path)
	assert.Equal(t, "file://migrations", cfg.Database.MigrationsPath, "unset keys keep defaults")
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 1.5, cfg.RateLimit.Score)

	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("DATABASE_PATH", "override.db")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "override.db", cfg.Database.Path)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("SCORE_RATE_BURST", "0")
	_, err = Load("")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [oops"), 0o600))
	t.Setenv("SCORE_RATE_BURST", "")
	_, err = Load(path)
	assert.Error(t, err)
}
