package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finopshq/budgetwatch/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	// Isolate from any real ~/.budgetwatch/config.yaml.
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "30s", cfg.Server.ReadTimeout)
	assert.Equal(t, "60s", cfg.Server.WriteTimeout)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "@every 15m", cfg.Scheduler.CheckSpec)
	assert.Equal(t, "@every 1m", cfg.Scheduler.DispatchSpec)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "#cloud-costs", cfg.Alerts.Slack.Channel)
	assert.Equal(t, 587, cfg.Alerts.Email.Port)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte(`
storage:
  path: /tmp/test.db
server:
  listen: ":9090"
scheduler:
  enabled: false
  check_spec: "@every 5m"
alerts:
  slack:
    enabled: true
    webhook_url: https://hooks.slack.com/services/T000/B000/XXX
logging:
  level: debug
`)
	err := os.WriteFile(cfgPath, data, 0o644)
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.Storage.Path)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "@every 5m", cfg.Scheduler.CheckSpec)
	assert.True(t, cfg.Alerts.Slack.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BW_LOGGING_LEVEL", "error")
	t.Setenv("BW_SERVER_LISTEN", ":7070")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, ":7070", cfg.Server.Listen)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	err := os.WriteFile(cfgPath, []byte("invalid: [yaml"), 0o644)
	require.NoError(t, err)

	_, err = config.Load(cfgPath)
	assert.Error(t, err)
}
