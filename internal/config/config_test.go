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
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "0.0.0.0"
port = 4000
debug_mode = true

[api]
base_url = "http://api.local"

[session]
backend = "sqlite"
expiration = "2h"
sqlite_file = "s.sqlite"
`)
	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "http://api.local", cfg.API.BaseURL)
	assert.Equal(t, BackendSqlite, cfg.Session.Backend)
	ttl, err := cfg.Session.TTL()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, ttl)
}

func TestNewEnvOverride(t *testing.T) {
	path := writeConfig(t, `
[session]
secret = "from-file"
`)
	t.Setenv("MEETUPS_API_URL", "http://env.api")
	t.Setenv("MEETUPS_SESSION_SECRET", "from-env")
	t.Setenv("MEETUPS_PORT", "8181")

	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env.api", cfg.API.BaseURL)
	assert.Equal(t, "from-env", cfg.Session.Secret)
	assert.Equal(t, 8181, cfg.Server.Port)
}

func TestNewBadPort(t *testing.T) {
	t.Setenv("MEETUPS_SESSION_SECRET", "s")
	t.Setenv("MEETUPS_PORT", "eighty")
	_, err := New("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingSecret)

	cfg.Session.Secret = "s"
	assert.NoError(t, cfg.Validate())

	cfg.Session.Backend = "redis"
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownBackend)

	cfg = Default()
	cfg.Session.Backend = BackendSqlite
	assert.NoError(t, cfg.Validate())

	cfg.Session.Expiration = "soon"
	assert.Error(t, cfg.Validate())
}

func TestNewMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("MEETUPS_API_URL", "")
	require.NoError(t, os.Unsetenv("MEETUPS_API_URL"))
	t.Setenv("MEETUPS_SESSION_SECRET", "already-set")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MEETUPS_API_URL=http://dotenv.api\nMEETUPS_SESSION_SECRET=from-file\n"), 0o644))
	require.NoError(t, LoadDotEnv(path))

	cfg, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv.api", cfg.API.BaseURL)
	assert.Equal(t, "already-set", cfg.Session.Secret)
}

func TestLoadDotEnvMissing(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}
