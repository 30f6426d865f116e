package model

import (
	"errors"
	"testing"
	"time"
)

func TestEventParameters(t *testing.T) {
	start := time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC)
	ev := EventParameters{Start: start, End: start.Add(2 * time.Hour), IncentivePct: 15}
	if ev.DurationH() != 2 {
		t.Fatalf("expected 2h got %v", ev.DurationH())
	}
	if !ev.Contains(start) || ev.Contains(ev.End) {
		t.Fatalf("window must be half open")
	}
	if err := ev.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	bad := EventParameters{Start: start, End: start}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent got %v", err)
	}
	if bad.DurationH() != 0 {
		t.Fatalf("empty window should have zero duration")
	}
}

func TestAssumptionsDefaultsAndValidate(t *testing.T) {
	var a SimulationAssumptions
	a.SetDefaults()
	if a.Payback.Type != PaybackUniform || a.Payback.DurationH != 1 {
		t.Fatalf("unexpected defaults %+v", a.Payback)
	}
	if a.RealityDiscountFactor != 0 {
		t.Fatalf("discount factor must not be defaulted, got %v", a.RealityDiscountFactor)
	}
	a.RealityDiscountFactor = 1.5
	if err := a.Validate(); err == nil {
		t.Fatalf("expected range error")
	}
	a.RealityDiscountFactor = 0.7
	a.Payback.Type = "sometimes"
	if err := a.Validate(); err == nil {
		t.Fatalf("expected payback type error")
	}
}

func TestCostAssumptionsPayoutRate(t *testing.T) {
	c := CostAssumptions{HouseholdPricePerKWh: 0.30}
	if got := c.PayoutRatePerKWh(50); got != 0.15 {
		t.Fatalf("expected 0.15 got %v", got)
	}
	c.AggregatorMargin = 2
	if err := c.Validate(); err == nil {
		t.Fatalf("expected margin error")
	}
}

func TestUnitFactors(t *testing.T) {
	if MW.KWFactor() != 1000 || KW.KWFactor() != 1 {
		t.Fatalf("power factors")
	}
	if KW.MWFactor() != 0.001 {
		t.Fatalf("kW to MW factor")
	}
	if EURPerKWh.PerMWhFactor() != 1000 || EURPerMWh.PerMWhFactor() != 1 {
		t.Fatalf("price factors")
	}
	if u, err := ParsePowerUnit("mw"); err != nil || u != MW {
		t.Fatalf("parse MW: %v %v", u, err)
	}
	if _, err := ParsePowerUnit("hp"); err == nil {
		t.Fatalf("expected unit error")
	}
}
