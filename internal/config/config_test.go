package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvConfigFile, "WORKTIMER_DB_PATH", "WORKTIMER_MATCHER", "WORKTIMER_SESSION_CAP",
		"WORKTIMER_PAUSE_WHEN_LOCKED", "WORKTIMER_PID_FILE", "WORKTIMER_WEB_HOST",
		"WORKTIMER_WEB_PORT", "WORKTIMER_LOG_LEVEL", "WORKTIMER_LOG_DEV", "WORKTIMER_LOG_FILE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "worktimer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /var/lib/worktimer.db
tracker:
  matcher: keyword
  session_cap: 50
web:
  port: 9090
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/worktimer.db", cfg.Database.Path)
	assert.Equal(t, "keyword", cfg.Tracker.Matcher)
	assert.Equal(t, 50, cfg.Tracker.SessionCap)
	assert.Equal(t, 9090, cfg.Web.Port)
	assert.Equal(t, "localhost", cfg.Web.Host)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFileFromEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracker:\n  matcher: keyword\n"), 0o644))
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "keyword", cfg.Tracker.Matcher)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("web:\n  host: 0.0.0.0\n  port: 9090\n"), 0o644))

	t.Setenv("WORKTIMER_WEB_PORT", "9191")
	t.Setenv("WORKTIMER_DB_PATH", "/tmp/x.db")
	t.Setenv("WORKTIMER_PAUSE_WHEN_LOCKED", "false")
	t.Setenv("WORKTIMER_LOG_DEV", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Web.Host)
	assert.Equal(t, 9191, cfg.Web.Port)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.False(t, cfg.Tracker.PauseWhenLocked)
	assert.True(t, cfg.Logging.Development)
}

func TestEnvMalformed(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKTIMER_WEB_PORT", "not-a-port")

	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown matcher", func(c *Config) { c.Tracker.Matcher = "regex" }},
		{"negative cap", func(c *Config) { c.Tracker.SessionCap = -1 }},
		{"bad port", func(c *Config) { c.Web.Port = 0 }},
		{"empty host", func(c *Config) { c.Web.Host = "" }},
		{"empty pid file", func(c *Config) { c.Daemon.PIDFile = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBaseURL(t *testing.T) {
	cfg := Default()
	cfg.Web.Host = "127.0.0.1"
	cfg.Web.Port = 8123
	assert.Equal(t, "http://127.0.0.1:8123", cfg.BaseURL())
}
