package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/toybox/internal/logging"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toybox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:3001", cfg.Client.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Client.RequestTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, ":3001", cfg.Backend.Addr)
	assert.Equal(t, "db.json", cfg.Backend.DBPath)
	assert.False(t, cfg.UI.ShowErrors)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
client:
  base_url: http://toys.internal:3001
  request_timeout: 2s
session:
  idle_ttl: 5m
ui:
  show_errors: true
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "http://toys.internal:3001", cfg.Client.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Client.RequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTTL)
	assert.True(t, cfg.UI.ShowErrors)
	// Unset keys keep their defaults
	assert.Equal(t, "toybox_session", cfg.Session.CookieName)
	assert.Equal(t, "db.json", cfg.Backend.DBPath)

	lc := cfg.Logging()
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)
}

func TestLoadNoPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = Load(writeFile(t, "server: [unclosed"))
	assert.ErrorIs(t, err, ErrInvalidYAML)

	_, err = Load(writeFile(t, "log:\n  level: loud\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvAPI:            "http://env:1",
		EnvRequestTimeout: "0s",
		EnvShowErrors:     "true",
		EnvEncryptProps:   "1",
		EnvDBPath:         "/tmp/toys.json",
		EnvLogLevel:       "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, applyEnv(cfg, lookup))

	assert.Equal(t, "http://env:1", cfg.Client.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.Client.RequestTimeout)
	assert.True(t, cfg.UI.ShowErrors)
	assert.True(t, cfg.Server.EncryptProps)
	assert.Equal(t, "/tmp/toys.json", cfg.Backend.DBPath)
	assert.Equal(t, "info", cfg.Log.Level, "empty variables are ignored")
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := map[string]string{
		EnvRequestTimeout: "soon",
		EnvIdleTTL:        "10",
		EnvShowErrors:     "maybe",
		EnvEncryptProps:   "sealed",
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			lookup := func(k string) (string, bool) {
				if k == name {
					return value, true
				}
				return "", false
			}
			assert.ErrorIs(t, applyEnv(Default(), lookup), ErrInvalid)
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv(EnvServerAddr, ":7777")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Session.IdleTTL = 0
	cfg.Client.BaseURL = ""

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "session.idle_ttl")
	assert.Contains(t, err.Error(), "client.base_url")
}
