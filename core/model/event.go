package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidEvent is returned by Validate when the event window is empty.
var ErrInvalidEvent = errors.New("event end must be after start")

// EventParameters describes a demand-response event window and the offered
// compensation.
type EventParameters struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
	// IncentivePct is the offered compensation in percent (0-100).
	IncentivePct float64 `json:"incentive_pct" yaml:"incentive_pct"`
}

// DurationH returns the required duration in hours. A window with end before
// start has zero duration.
func (e EventParameters) DurationH() float64 {
	d := e.End.Sub(e.Start)
	if d < 0 {
		return 0
	}
	return d.Hours()
}

// Contains reports whether t lies in [Start, End).
func (e EventParameters) Contains(t time.Time) bool {
	return !t.Before(e.Start) && t.Before(e.End)
}

// Validate checks the window and the incentive range.
func (e EventParameters) Validate() error {
	if !e.End.After(e.Start) {
		return ErrInvalidEvent
	}
	if e.IncentivePct < 0 {
		return fmt.Errorf("incentive_pct must not be negative: %v", e.IncentivePct)
	}
	return nil
}

// PaybackType selects how shifted energy comes back after an event.
type PaybackType string

const (
	PaybackNone    PaybackType = "none"
	PaybackUniform PaybackType = "uniform_after_event"
)

// PaybackModel configures the rebound after an event.
type PaybackModel struct {
	Type      PaybackType `json:"type" yaml:"type"`
	DurationH float64     `json:"duration_h" yaml:"duration_h"`
	DelayH    float64     `json:"delay_h" yaml:"delay_h"`
}

// SimulationAssumptions derate survey answers and configure the rebound.
type SimulationAssumptions struct {
	// RealityDiscountFactor scales stated willingness (0-1).
	RealityDiscountFactor float64      `json:"reality_discount_factor" yaml:"reality_discount_factor"`
	Payback               PaybackModel `json:"payback_model" yaml:"payback_model"`
}

// SetDefaults selects a one-hour uniform payback when none is configured.
// RealityDiscountFactor is left alone since zero is a valid value.
func (a *SimulationAssumptions) SetDefaults() {
	if a.Payback.Type == "" {
		a.Payback.Type = PaybackUniform
	}
	if a.Payback.Type == PaybackUniform && a.Payback.DurationH == 0 {
		a.Payback.DurationH = 1
	}
}

// Validate checks value ranges.
func (a SimulationAssumptions) Validate() error {
	if a.RealityDiscountFactor < 0 || a.RealityDiscountFactor > 1 {
		return fmt.Errorf("reality_discount_factor must be within [0,1]: %v", a.RealityDiscountFactor)
	}
	switch a.Payback.Type {
	case PaybackNone, PaybackUniform, "":
	default:
		return fmt.Errorf("unknown payback type %s", a.Payback.Type)
	}
	if a.Payback.DurationH < 0 || a.Payback.DelayH < 0 {
		return fmt.Errorf("payback duration and delay must not be negative")
	}
	return nil
}

// CostAssumptions are the economic parameters threaded through a scenario.
type CostAssumptions struct {
	// HouseholdPricePerKWh is the reference retail price the incentive
	// percentage applies to.
	HouseholdPricePerKWh float64 `json:"household_price_per_kwh" yaml:"household_price_per_kwh"`
	// AggregatorMargin is the share of captured value kept by the aggregator.
	AggregatorMargin     float64 `json:"aggregator_margin" yaml:"aggregator_margin"`
	ActivationCostPerMWh float64 `json:"activation_cost_per_mwh" yaml:"activation_cost_per_mwh"`
	AvailabilityFactor   float64 `json:"availability_factor" yaml:"availability_factor"`
}

// PayoutRatePerKWh converts an incentive percentage into a payout per kWh.
func (c CostAssumptions) PayoutRatePerKWh(incentivePct float64) float64 {
	return incentivePct / 100 * c.HouseholdPricePerKWh
}

// Validate checks value ranges.
func (c CostAssumptions) Validate() error {
	if c.HouseholdPricePerKWh < 0 {
		return fmt.Errorf("household_price_per_kwh must not be negative")
	}
	if c.AggregatorMargin < 0 || c.AggregatorMargin > 1 {
		return fmt.Errorf("aggregator_margin must be within [0,1]")
	}
	if c.AvailabilityFactor < 0 || c.AvailabilityFactor > 1 {
		return fmt.Errorf("availability_factor must be within [0,1]")
	}
	return nil
}
