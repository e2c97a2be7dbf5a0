package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"NIFTY"}, cfg.Symbols)
	assert.Equal(t, "1d", cfg.Interval)
	assert.Equal(t, 4, cfg.Years)
	assert.Equal(t, 14, cfg.RSI.Period)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 15*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, time.Second, cfg.Replay.Step)
	assert.Empty(t, cfg.Database.SQLitePath)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
symbols: [SPX, SENSEX]
interval: 1wk
years: 2
rsi:
  period: 9
redis:
  addr: localhost:6379
  ttl: 1m
replay:
  step: 250ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"SPX", "SENSEX"}, cfg.Symbols)
	assert.Equal(t, "1wk", cfg.Interval)
	assert.Equal(t, 2, cfg.Years)
	assert.Equal(t, 9, cfg.RSI.Period)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Replay.Step)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, "symbols: [SPX]\nrsi:\n  period: 9\n")
	t.Setenv("SYMBOLS", "NIFTY,SENSEX")
	t.Setenv("RSI_PERIOD", "21")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"NIFTY", "SENSEX"}, cfg.Symbols)
	assert.Equal(t, 21, cfg.RSI.Period)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_ADDR=:9999\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("HTTP_ADDR") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
}

func TestLoad_BadYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(writeConfig(t, "symbols: [unterminated"))
	assert.ErrorContains(t, err, "parse config")
}

func TestLoad_BadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("YEARS", "many")
	_, err := Load("")
	assert.ErrorContains(t, err, "parse env")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.applyDefaults()
		return c
	}

	c := valid()
	c.RSI.Period = -1
	assert.Error(t, c.Validate())

	c = valid()
	c.Years = 11
	assert.Error(t, c.Validate())

	c = valid()
	c.Symbols = []string{"SPX", ""}
	assert.Error(t, c.Validate())

	c = valid()
	c.Schedule.RefreshCron = "not a cron"
	assert.ErrorContains(t, c.Validate(), "schedule.refresh_cron")

	c = valid()
	c.Schedule.RefreshCron = "@every 1h"
	assert.NoError(t, c.Validate())
}
