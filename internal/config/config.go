package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for backsim.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Alpaca   Alpaca   `yaml:"alpaca"`
	Logging  Logging  `yaml:"logging"`
	Backtest Backtest `yaml:"backtest"`
	Fetch    Fetch    `yaml:"fetch"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Alpaca holds credentials and endpoint for the Alpaca market-data API.
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

// Backtest holds the default simulation parameters.
type Backtest struct {
	InitialCash   float64 `yaml:"initial_cash"`
	FeeBps        float64 `yaml:"fee_bps"`
	SlippageBps   float64 `yaml:"slippage_bps"`
	RiskFreeDaily float64 `yaml:"risk_free_daily"`
	AlignSignal   bool    `yaml:"align_signal"`
}

// Fetch controls data-fetching behaviour.
type Fetch struct {
	RateLimitPerMin int `yaml:"rate_limit_per_min"`
	MaxAttempts     int `yaml:"max_attempts"`
}

// Default returns the built-in configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Storage: Storage{
			DataDir:    "data",
			SQLitePath: "backsim.db",
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
		Backtest: Backtest{
			InitialCash: 100_000,
			FeeBps:      1,
			SlippageBps: 0,
		},
		Fetch: Fetch{
			RateLimitPerMin: 200,
			MaxAttempts:     3,
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path over the built-in
// defaults and then applies environment variable overrides. An empty path
// yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
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

	// Canonical Alpaca SDK vars take precedence over the ALPACA_* aliases.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
