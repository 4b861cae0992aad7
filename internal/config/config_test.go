package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultTickers, cfg.Tickers)
	assert.Equal(t, 365*3, cfg.LookbackDays)
	assert.Equal(t, 4, cfg.ETL.Workers)
	assert.True(t, cfg.Replace())
	assert.Equal(t, "data/equity_pulse.db", cfg.Database.SQLitePath)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
tickers: [IBM, ORCL]
lookback_days: 400
etl:
  cron: "0 0 6 * * *"
  workers: 2
  replace_existing: false
database:
  sqlite_path: /tmp/x.db
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("ETL_WORKERS", "8")
	t.Setenv("TICKERS", " tsla, nvda ,")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"TSLA", "NVDA"}, cfg.Tickers)
	assert.Equal(t, 400, cfg.LookbackDays)
	assert.Equal(t, 8, cfg.ETL.Workers)
	assert.Equal(t, "0 0 6 * * *", cfg.ETL.Cron)
	assert.False(t, cfg.Replace())
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLTickersUpperCased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tickers: [aapl, ' msft ']\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Tickers)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_CaseInsensitiveDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tickers: [aapl, AAPL]\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("LOOKBACK_DAYS", "three years")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tickers: [unterminated"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"duplicate ticker", func(c *Config) { c.Tickers = []string{"AAPL", "AAPL"} }},
		{"blank ticker", func(c *Config) { c.Tickers = []string{""} }},
		{"negative lookback", func(c *Config) { c.LookbackDays = -1 }},
		{"zero workers", func(c *Config) { c.ETL.Workers = 0 }},
		{"bad cron", func(c *Config) { c.ETL.Cron = "every day" }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "token" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
