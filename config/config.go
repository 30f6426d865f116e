package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/drflex/core/metrics"
	"github.com/kilianp07/drflex/infra/dataset"
	"github.com/kilianp07/drflex/infra/monitoring"
)

// EnvPrefix marks environment overrides. Double underscores separate
// levels: K_SCENARIO__COSTS__AGGREGATOR_MARGIN=0.2.
const EnvPrefix = "K_"

type Config struct {
	Logging  LoggingConfig     `json:"logging"`
	Metrics  metrics.Config    `json:"metrics"`
	Sentry   monitoring.Config `json:"sentry"`
	Market   MarketConfig      `json:"market"`
	Inputs   dataset.Conf      `json:"inputs"`
	Scenario ScenarioConfig    `json:"scenario"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Scenario: defaultScenario()}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Logging.SetDefaults()
	c.Market.SetDefaults()
	c.Inputs.SetDefaults()
	c.Scenario.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	if err := c.Market.Validate(); err != nil {
		return err
	}
	if err := c.Inputs.Validate(); err != nil {
		return err
	}
	return c.Scenario.Validate()
}

// Load reads a yaml or json file, applies K_ environment overrides, fills
// defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := &Config{Scenario: defaultScenario()}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
