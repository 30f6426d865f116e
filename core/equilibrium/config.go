package equilibrium

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by Config.Validate failures.
var ErrInvalidConfig = errors.New("invalid solver config")

// Config parameterises the damped fixed-point search.
type Config struct {
	// Damping is the weight kept on the previous guess, in [0,1).
	Damping float64 `json:"damping" yaml:"damping"`
	// StepPct rounds candidates to multiples of the step; 0 keeps them
	// continuous.
	StepPct       float64 `json:"step_pct" yaml:"step_pct"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations"`
	// Threshold is the convergence tolerance in percentage points.
	Threshold float64 `json:"threshold" yaml:"threshold"`
	MaxPct    float64 `json:"max_pct" yaml:"max_pct"`
	// IncludeBalancing adds balancing savings to the captured value.
	IncludeBalancing bool `json:"include_balancing" yaml:"include_balancing"`
}

// DefaultConfig returns the 0.5 damping, 50 iterations, 0.01 pp and 150 %
// settings.
func DefaultConfig() Config {
	c := Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Damping == 0 {
		c.Damping = 0.5
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = 50
	}
	if c.Threshold == 0 {
		c.Threshold = 0.01
	}
	if c.MaxPct == 0 {
		c.MaxPct = 150
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Damping < 0 || c.Damping >= 1:
		return fmt.Errorf("%w: damping must be within [0,1): %v", ErrInvalidConfig, c.Damping)
	case c.StepPct < 0:
		return fmt.Errorf("%w: step_pct must not be negative", ErrInvalidConfig)
	case c.MaxIterations < 1:
		return fmt.Errorf("%w: max_iterations must be at least 1", ErrInvalidConfig)
	case c.Threshold <= 0:
		return fmt.Errorf("%w: threshold must be positive", ErrInvalidConfig)
	case c.MaxPct <= 0:
		return fmt.Errorf("%w: max_pct must be positive", ErrInvalidConfig)
	}
	return nil
}
