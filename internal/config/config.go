// Package config exposes strongly typed application configuration loaded
// from YAML plus the startup validation gate: a config that fails Validate
// must keep the engine from ever activating.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Feed describes the market data source for the single traded instrument.
type Feed struct {
	Provider string  `yaml:"provider"` // stub | binance
	Symbol   string  `yaml:"symbol"`
	MinStep  float64 `yaml:"min_step"`
	History  int     `yaml:"history_bars"` // lookback depth kept in memory
}

// Zones tunes detection and the registry lifecycle.
type Zones struct {
	LookbackBars  int     `yaml:"lookback_bars"`
	BodyRatio     float64 `yaml:"body_ratio"`
	MaxAgeDays    int     `yaml:"max_age_days"`
	Capacity      int     `yaml:"capacity"`
	PurgeInterval int     `yaml:"purge_interval_secs"`
}

// Trading tunes entries: indicator periods, stop/target multipliers, risk.
type Trading struct {
	RiskPct   float64 `yaml:"risk_pct"`
	ATRPeriod int     `yaml:"atr_period"`
	SLMult    float64 `yaml:"sl_atr_mult"`
	TPMult    float64 `yaml:"tp_atr_mult"`
	EMAFast   int     `yaml:"ema_fast"`
	EMASlow   int     `yaml:"ema_slow"`
	Hours     string  `yaml:"hours"`
}

// Manage tunes the open-position throttled management.
type Manage struct {
	TrailingEnabled bool    `yaml:"trailing_enabled"`
	TrailingMult    float64 `yaml:"trailing_atr_mult"`
	PartialEnabled  bool    `yaml:"partial_close_enabled"`
	PartialMult     float64 `yaml:"partial_close_atr_mult"`
}

// Sim seeds the simulated venue for paper runs.
type Sim struct {
	Balance     float64 `yaml:"balance"`
	Leverage    float64 `yaml:"leverage"`
	LotMin      float64 `yaml:"lot_min"`
	LotMax      float64 `yaml:"lot_max"`
	LotStep     float64 `yaml:"lot_step"`
	TickValue   float64 `yaml:"tick_value"`
	JournalPath string  `yaml:"journal_path"`
}

// Config collects every configuration leaf for marshaling from YAML.
type Config struct {
	App     App     `yaml:"app"`
	Feed    Feed    `yaml:"feed"`
	Zones   Zones   `yaml:"zones"`
	Trading Trading `yaml:"trading"`
	Manage  Manage  `yaml:"manage"`
	Sim     Sim     `yaml:"sim"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Validate is the fail-fast gate for startup parameters.
func (c *Config) Validate() error {
	if c.Feed.Symbol == "" {
		return fmt.Errorf("feed.symbol is required")
	}
	if c.Zones.LookbackBars < 3 {
		return fmt.Errorf("zones.lookback_bars %d: must be >= 3", c.Zones.LookbackBars)
	}
	if c.Zones.BodyRatio <= 0 || c.Zones.BodyRatio > 1 {
		return fmt.Errorf("zones.body_ratio %.3f: must be in (0, 1]", c.Zones.BodyRatio)
	}
	if c.Zones.MaxAgeDays <= 0 {
		return fmt.Errorf("zones.max_age_days %d: must be positive", c.Zones.MaxAgeDays)
	}
	if c.Zones.Capacity <= 0 {
		return fmt.Errorf("zones.capacity %d: must be positive", c.Zones.Capacity)
	}
	if c.Trading.RiskPct <= 0 || c.Trading.RiskPct > 100 {
		return fmt.Errorf("trading.risk_pct %.2f: must be in (0, 100]", c.Trading.RiskPct)
	}
	if c.Trading.ATRPeriod <= 0 {
		return fmt.Errorf("trading.atr_period %d: must be positive", c.Trading.ATRPeriod)
	}
	if c.Trading.SLMult <= 0 || c.Trading.TPMult <= 0 {
		return fmt.Errorf("trading stop/target multipliers must be positive")
	}
	if c.Trading.EMAFast <= 0 || c.Trading.EMASlow <= 0 || c.Trading.EMAFast >= c.Trading.EMASlow {
		return fmt.Errorf("trading EMA periods: fast %d must be positive and below slow %d",
			c.Trading.EMAFast, c.Trading.EMASlow)
	}
	if _, err := ParseHours(c.Trading.Hours); err != nil {
		return err
	}
	if c.Manage.TrailingEnabled && c.Manage.TrailingMult <= 0 {
		return fmt.Errorf("manage.trailing_atr_mult %.2f: must be positive when trailing is enabled", c.Manage.TrailingMult)
	}
	if c.Manage.PartialEnabled && c.Manage.PartialMult <= 0 {
		return fmt.Errorf("manage.partial_close_atr_mult %.2f: must be positive when partial close is enabled", c.Manage.PartialMult)
	}
	return nil
}

// TradingHours returns the parsed window; Validate must have passed.
func (c *Config) TradingHours() Hours {
	h, err := ParseHours(c.Trading.Hours)
	if err != nil {
		panic(fmt.Sprintf("TradingHours called on unvalidated config: %v", err))
	}
	return h
}
