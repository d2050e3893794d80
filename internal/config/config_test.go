package config

import (
	"os"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "meridian-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}
	return tmpFile.Name()
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "/tmp/meridian/data"
  sqlite_path: "/tmp/meridian/meridian.db"
  cache_dir: "/tmp/meridian/cache"
  report_dir: "/tmp/meridian/report"
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  data_url: "https://data.alpaca.markets"
logging:
  level: "info"
  format: "json"
gather:
  start_date: "2010-01-01"
  universe: ["AAPL", "GOOGL", "MSFT"]
  benchmark_name: "sp500"
  benchmark_symbol: "SPY"
  batch_size: 500
  rate_limit_per_min: 200
backtest:
  strategy: "macd-cross"
  universe: ["aapl", "googl"]
  start_date: "2013-01-01"
  end_date: "2013-12-31"
  initial_cash: 1000000
  fundamental_delay_days: 90
  benchmark: "sp500"
`)

	// Clear any environment overrides that might interfere.
	os.Unsetenv("ALPACA_API_KEY")
	os.Unsetenv("ALPACA_API_SECRET")
	os.Unsetenv("APCA_API_KEY_ID")
	os.Unsetenv("APCA_API_SECRET_KEY")
	os.Unsetenv("DATA_DIR")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/meridian/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/meridian/data")
	}
	if cfg.Storage.ReportDir != "/tmp/meridian/report" {
		t.Errorf("Storage.ReportDir = %q, want %q", cfg.Storage.ReportDir, "/tmp/meridian/report")
	}
	if cfg.Alpaca.APIKey != "test-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q", cfg.Alpaca.APIKey, "test-key")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if len(cfg.Gather.Universe) != 3 || cfg.Gather.Universe[0] != "AAPL" {
		t.Errorf("Gather.Universe = %v, want [AAPL GOOGL MSFT]", cfg.Gather.Universe)
	}
	if cfg.Gather.BenchmarkSymbol != "SPY" {
		t.Errorf("Gather.BenchmarkSymbol = %q, want %q", cfg.Gather.BenchmarkSymbol, "SPY")
	}
	if cfg.Backtest.Strategy != "macd-cross" {
		t.Errorf("Backtest.Strategy = %q, want %q", cfg.Backtest.Strategy, "macd-cross")
	}
	if cfg.Backtest.InitialCash != 1000000 {
		t.Errorf("Backtest.InitialCash = %f, want 1000000", cfg.Backtest.InitialCash)
	}
	if cfg.Backtest.FundamentalDelayDays != 90 {
		t.Errorf("Backtest.FundamentalDelayDays = %d, want 90", cfg.Backtest.FundamentalDelayDays)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
storage:
  data_dir: "/original/data"
`)

	os.Setenv("ALPACA_API_KEY", "env-key")
	os.Setenv("DATA_DIR", "/env/data")
	os.Unsetenv("APCA_API_KEY_ID")
	os.Unsetenv("APCA_API_SECRET_KEY")
	defer os.Unsetenv("ALPACA_API_KEY")
	defer os.Unsetenv("DATA_DIR")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q (env override)", cfg.Alpaca.APIKey, "env-key")
	}
	// api_secret should remain from YAML since no env override was set.
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q (from YAML)", cfg.Alpaca.APISecret, "yaml-secret")
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
}
