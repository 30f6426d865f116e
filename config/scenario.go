package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/drflex/core/equilibrium"
	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/core/participation"
	"github.com/kilianp07/drflex/core/scenario"
	"github.com/kilianp07/drflex/core/survey"
)

// SweepConfig lists the grid evaluated by the sweep command.
type SweepConfig struct {
	// Start is the event start of every combination; zero uses the
	// scenario event start.
	Start         time.Time `json:"start"`
	DurationsH    []float64 `json:"durations_h"`
	IncentivesPct []float64 `json:"incentives_pct"`
	Workers       int       `json:"workers"`
}

// ScenarioConfig holds the engine parameters.
type ScenarioConfig struct {
	Event           model.EventParameters       `json:"event"`
	Method          participation.Method        `json:"method"`
	Assumptions     model.SimulationAssumptions `json:"assumptions"`
	Costs           model.CostAssumptions       `json:"costs"`
	Solver          equilibrium.Config          `json:"solver"`
	Sweep           SweepConfig                 `json:"sweep"`
	DurationBuckets survey.DurationBuckets      `json:"duration_buckets"`
}

// defaultScenario holds values that are valid when zero and therefore cannot
// be filled by SetDefaults.
func defaultScenario() ScenarioConfig {
	return ScenarioConfig{
		Assumptions:     model.SimulationAssumptions{RealityDiscountFactor: 1},
		Costs:           model.CostAssumptions{AvailabilityFactor: 1},
		DurationBuckets: survey.DefaultDurationBuckets(),
	}
}

// SetDefaults fills method, payback, solver and sweep defaults.
func (c *ScenarioConfig) SetDefaults() {
	if c.Method == "" {
		c.Method = participation.MethodDiscrete
	}
	c.Assumptions.SetDefaults()
	c.Solver.SetDefaults()
	if c.Sweep.Workers == 0 {
		c.Sweep.Workers = 4
	}
	if c.Sweep.Start.IsZero() {
		c.Sweep.Start = c.Event.Start
	}
	if c.DurationBuckets == nil {
		c.DurationBuckets = survey.DefaultDurationBuckets()
	}
}

// Params returns the assumptions threaded through an evaluation.
func (c ScenarioConfig) Params() scenario.Params {
	return scenario.Params{Assumptions: c.Assumptions, Costs: c.Costs}
}

// Validate checks every part. The event window itself is checked by the
// commands that need it.
func (c ScenarioConfig) Validate() error {
	switch c.Method {
	case participation.MethodDiscrete, participation.MethodLogNormal:
	default:
		return fmt.Errorf("scenario.method: unknown method %q", c.Method)
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("scenario: %w", err)
	}
	if err := c.Solver.Validate(); err != nil {
		return fmt.Errorf("scenario.solver: %w", err)
	}
	if err := c.DurationBuckets.Validate(); err != nil {
		return fmt.Errorf("scenario.duration_buckets: %w", err)
	}
	if c.Sweep.Workers < 0 {
		return errors.New("scenario.sweep.workers must not be negative")
	}
	for _, d := range c.Sweep.DurationsH {
		if d < 0 {
			return fmt.Errorf("scenario.sweep.durations_h: negative duration %v", d)
		}
	}
	for _, p := range c.Sweep.IncentivesPct {
		if p < 0 {
			return fmt.Errorf("scenario.sweep.incentives_pct: negative incentive %v", p)
		}
	}
	return nil
}
