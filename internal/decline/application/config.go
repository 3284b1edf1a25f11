package application

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	decline "decline-cloud/internal/decline/domain"
)

const (
	// MalformedSkip logs and skips wells with malformed models.
	MalformedSkip = "skip"
	// MalformedAbort aborts the whole pass on the first malformed model.
	MalformedAbort = "abort"
)

// WellOverride narrows what a population pass does for one well.
type WellOverride struct {
	SkipOil       bool `yaml:"skip_oil"`
	SkipGas       bool `yaml:"skip_gas"`
	DisableSearch bool `yaml:"disable_search"`
}

// Config defines decline engine configuration.
type Config struct {
	Workers             int                     `yaml:"workers"`
	AggregatePolicy     string                  `yaml:"aggregate_policy"`
	OutlierClampPct     float64                 `yaml:"outlier_clamp_pct"`
	SearchGrid          decline.SearchGrid      `yaml:"search_grid"`
	OnMalformed         string                  `yaml:"on_malformed"`
	GateOnEconomicLimit bool                    `yaml:"gate_on_economic_limit"`
	Wells               map[string]WellOverride `yaml:"wells"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Workers:         1,
		AggregatePolicy: decline.PolicyMedian,
		OutlierClampPct: decline.DefaultOutlierClampPct,
		SearchGrid:      decline.DefaultSearchGrid,
		OnMalformed:     MalformedSkip,
	}
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	cfg.Workers = getenvIntDefault("DECLINE_WORKERS", cfg.Workers)
	cfg.AggregatePolicy = getenvDefault("DECLINE_AGGREGATE_POLICY", cfg.AggregatePolicy)
	cfg.OnMalformed = getenvDefault("DECLINE_ON_MALFORMED", cfg.OnMalformed)
	cfg.GateOnEconomicLimit = getenvBoolDefault("DECLINE_GATE_ON_ECONOMIC_LIMIT", cfg.GateOnEconomicLimit)

	if path := os.Getenv("DECLINE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := ParseConfig(data, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

// ParseConfig overlays yaml onto cfg and fills zero values with defaults.
func ParseConfig(data []byte, cfg *Config) error {
	if cfg == nil {
		return errors.New("decline config: nil config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	defaults := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.AggregatePolicy == "" {
		cfg.AggregatePolicy = defaults.AggregatePolicy
	}
	if cfg.OutlierClampPct <= 0 {
		cfg.OutlierClampPct = defaults.OutlierClampPct
	}
	if cfg.SearchGrid == (decline.SearchGrid{}) {
		cfg.SearchGrid = defaults.SearchGrid
	}
	if cfg.OnMalformed == "" {
		cfg.OnMalformed = defaults.OnMalformed
	}
	return nil
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return errors.New("decline config: workers must be > 0")
	}
	if _, err := decline.PolicyByName(c.AggregatePolicy, c.OutlierClampPct); err != nil {
		return err
	}
	if len(c.SearchGrid.Candidates()) == 0 {
		return decline.ErrEmptyGrid
	}
	switch strings.ToLower(c.OnMalformed) {
	case MalformedSkip, MalformedAbort:
	default:
		return errors.New("decline config: on_malformed must be skip or abort")
	}
	return nil
}

// Policy resolves the configured aggregate error policy.
func (c Config) Policy() (decline.ErrorPolicy, error) {
	return decline.PolicyByName(c.AggregatePolicy, c.OutlierClampPct)
}

// OverrideForWell returns the override for a well, if any.
func (c Config) OverrideForWell(wellID string) WellOverride {
	if c.Wells == nil {
		return WellOverride{}
	}
	return c.Wells[wellID]
}

// AbortOnMalformed reports whether malformed models abort a pass.
func (c Config) AbortOnMalformed() bool {
	return strings.EqualFold(c.OnMalformed, MalformedAbort)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
