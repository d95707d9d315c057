package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete simtrader configuration.
type Config struct {
	Simulator SimulatorConfig `yaml:"simulator"`
	Engine    EngineConfig    `yaml:"engine"`
	Replay    ReplayConfig    `yaml:"replay"`
	Portfolio PortfolioConfig `yaml:"portfolio"`
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// SimulatorConfig controls the synthetic market clock and price process.
type SimulatorConfig struct {
	TickIntervalMS int     `yaml:"tick_interval_ms"`
	TicksPerDay    int     `yaml:"ticks_per_day"`
	Scenario       string  `yaml:"scenario"` // calm | normal | volatile | bull | bear
	Speed          float64 `yaml:"speed"`
	EventBaseProb  float64 `yaml:"event_base_prob"`
}

// EngineConfig controls the decision engine.
type EngineConfig struct {
	Strategy            string  `yaml:"strategy"` // auto or a single strategy name
	EvalEveryTicks      int     `yaml:"eval_every_ticks"`
	ConvictionThreshold float64 `yaml:"conviction_threshold"`
	LookaheadPaths      int     `yaml:"lookahead_paths"`
	LookaheadSteps      int     `yaml:"lookahead_steps"`
	MaxCashFraction     float64 `yaml:"max_cash_fraction"`
	TraceCap            int     `yaml:"trace_cap"`
}

// ReplayConfig controls historical replay mode.
type ReplayConfig struct {
	Symbol              string  `yaml:"symbol"`
	Range               string  `yaml:"range"`    // 1mo | 6mo | 1y | 5y
	Interval            string  `yaml:"interval"` // 1d | 1wk
	ConvictionThreshold float64 `yaml:"conviction_threshold"`
}

// PortfolioConfig controls the starting state of both ledgers.
type PortfolioConfig struct {
	StartingCash float64 `yaml:"starting_cash"`
}

// APIConfig contains the base URL of the historical quotes API.
type APIConfig struct {
	HistoryBase string `yaml:"history_base"`
}

// StorageConfig controls where run data is persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls the logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config file and the .env file if either exists.
// A missing config file is not an error: defaults cover every key.
// Env vars override the matching YAML keys.
func Load(path string) (*Config, error) {
	// Load .env if present (silences the error when there is none).
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case os.IsNotExist(err):
		// run on defaults
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// TickInterval returns the simulator tick interval scaled by the speed
// multiplier, as a time.Duration.
func (c *Config) TickInterval() time.Duration {
	base := time.Duration(c.Simulator.TickIntervalMS) * time.Millisecond
	if c.Simulator.Speed <= 0 {
		return base
	}
	return time.Duration(float64(base) / c.Simulator.Speed)
}

// applyEnvOverrides overwrites values with environment variables when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("HISTORY_BASE_URL"); v != "" {
		cfg.API.HistoryBase = v
	}
}

// setDefaults makes sure every required value is sensible.
func setDefaults(cfg *Config) {
	if cfg.Simulator.TickIntervalMS <= 0 {
		cfg.Simulator.TickIntervalMS = 500
	}
	if cfg.Simulator.TicksPerDay <= 0 {
		cfg.Simulator.TicksPerDay = 60
	}
	if cfg.Simulator.Scenario == "" {
		cfg.Simulator.Scenario = "normal"
	}
	if cfg.Simulator.Speed <= 0 {
		cfg.Simulator.Speed = 1
	}
	if cfg.Simulator.EventBaseProb <= 0 {
		cfg.Simulator.EventBaseProb = 0.015
	}
	if cfg.Engine.Strategy == "" {
		cfg.Engine.Strategy = "auto"
	}
	if cfg.Engine.EvalEveryTicks <= 0 {
		cfg.Engine.EvalEveryTicks = 5
	}
	if cfg.Engine.ConvictionThreshold <= 0 {
		cfg.Engine.ConvictionThreshold = 0.1
	}
	if cfg.Engine.LookaheadPaths <= 0 {
		cfg.Engine.LookaheadPaths = 8
	}
	if cfg.Engine.LookaheadSteps <= 0 {
		cfg.Engine.LookaheadSteps = 5
	}
	if cfg.Engine.MaxCashFraction <= 0 {
		cfg.Engine.MaxCashFraction = 0.25
	}
	if cfg.Engine.TraceCap <= 0 {
		cfg.Engine.TraceCap = 50
	}
	if cfg.Replay.Symbol == "" {
		cfg.Replay.Symbol = "AAPL"
	}
	if cfg.Replay.Range == "" {
		cfg.Replay.Range = "1y"
	}
	if cfg.Replay.Interval == "" {
		cfg.Replay.Interval = "1d"
	}
	if cfg.Replay.ConvictionThreshold <= 0 {
		// Real data warrants a stricter bar than synthetic prices.
		cfg.Replay.ConvictionThreshold = 0.5
	}
	if cfg.Portfolio.StartingCash <= 0 {
		cfg.Portfolio.StartingCash = 10000
	}
	if cfg.API.HistoryBase == "" {
		cfg.API.HistoryBase = "https://query1.finance.yahoo.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "simtrader.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
