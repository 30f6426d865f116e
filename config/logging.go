package config

import (
	"github.com/kilianp07/drflex/core/scenario/logging"
	"github.com/kilianp07/drflex/infra/logger"
)

// LoggingConfig groups application logging and the evaluation log store.
type LoggingConfig struct {
	// Level is a zerolog level name.
	Level string `json:"level"`
	// Format is "json" or "console".
	Format string `json:"format"`
	// EvalLog configures where evaluation and solve records are kept.
	EvalLog logging.Config `json:"eval_log"`
}

// Logger returns the zerolog settings.
func (c LoggingConfig) Logger() logger.Config {
	return logger.Config{Level: c.Level, Format: c.Format}
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	lc := c.Logger()
	lc.SetDefaults()
	c.Level, c.Format = lc.Level, lc.Format
	c.EvalLog.SetDefaults()
}

// Validate checks both parts.
func (c LoggingConfig) Validate() error {
	if err := c.Logger().Validate(); err != nil {
		return err
	}
	return c.EvalLog.Validate()
}
