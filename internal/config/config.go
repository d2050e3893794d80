// Package config loads the meridian YAML configuration with .env and
// environment variable overrides.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the meridian platform.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Logging  Logging        `yaml:"logging"`
	Gather   GatherConfig   `yaml:"gather"`
	Backtest BacktestConfig `yaml:"backtest"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`    // Parquet bar files
	SQLitePath string `yaml:"sqlite_path"` // bar/fundamental/benchmark database
	CacheDir   string `yaml:"cache_dir"`   // assembled-frame cache
	ReportDir  string `yaml:"report_dir"`  // JSON report payloads
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GatherConfig controls the data gathering jobs.
type GatherConfig struct {
	StartDate       string   `yaml:"start_date"`
	EndDate         string   `yaml:"end_date"` // empty means today
	Universe        []string `yaml:"universe"`
	BenchmarkName   string   `yaml:"benchmark_name"`   // e.g. "sp500"
	BenchmarkSymbol string   `yaml:"benchmark_symbol"` // traded proxy, e.g. "SPY"
	BatchSize       int      `yaml:"batch_size"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
}

// BacktestConfig holds the parameters of a backtest run.
type BacktestConfig struct {
	Strategy             string   `yaml:"strategy"`
	Universe             []string `yaml:"universe"`
	StartDate            string   `yaml:"start_date"`
	EndDate              string   `yaml:"end_date"`
	InitialCash          float64  `yaml:"initial_cash"`
	FundamentalDelayDays int      `yaml:"fundamental_delay_days"` // 0 means the default 90
	Benchmark            string   `yaml:"benchmark"`              // benchmark name for strategies that take one
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	// A missing .env file is fine; explicit environment always wins anyway.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.Storage.CacheDir = v
	}
	if v := os.Getenv("REPORT_DIR"); v != "" {
		cfg.Storage.ReportDir = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
