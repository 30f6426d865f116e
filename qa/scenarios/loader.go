// Package scenarios runs reference demand-response scenarios described in
// YAML files against the engine.
package scenarios

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/core/scenario"
	"github.com/kilianp07/drflex/core/survey"
)

// Day is the calendar day every scenario runs on.
var Day = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

type EventDef struct {
	StartHour    float64 `yaml:"start_hour"`
	DurationH    float64 `yaml:"duration_h"`
	IncentivePct float64 `yaml:"incentive_pct"`
}

func (e EventDef) ToModel() model.EventParameters {
	start := Day.Add(time.Duration(e.StartHour * float64(time.Hour)))
	return model.EventParameters{
		Start:        start,
		End:          start.Add(time.Duration(e.DurationH * float64(time.Hour))),
		IncentivePct: e.IncentivePct,
	}
}

// PriceDef describes a flat price with a peak window, in EUR/MWh.
type PriceDef struct {
	Base      float64 `yaml:"base"`
	Peak      float64 `yaml:"peak"`
	PeakHours []int   `yaml:"peak_hours"`
}

type Expected struct {
	ParticipationRate *float64 `yaml:"participation_rate,omitempty"`
	ShiftedKWh        *float64 `yaml:"shifted_kwh,omitempty"`
	MarketSavings     *float64 `yaml:"market_savings,omitempty"`
	// NetValueSign is -1, 0 or 1 when set.
	NetValueSign *int `yaml:"net_value_sign,omitempty"`
	// SolverStatus is checked when the scenario also runs the solver.
	SolverStatus string  `yaml:"solver_status,omitempty"`
	Tolerance    float64 `yaml:"tolerance,omitempty"`
}

type Scenario struct {
	Name        string                      `yaml:"name"`
	Description string                      `yaml:"description,omitempty"`
	StepMinutes int                         `yaml:"step_minutes"`
	Method      string                      `yaml:"method,omitempty"`
	Event       EventDef                    `yaml:"event"`
	LoadKW      map[string]float64          `yaml:"load_kw"`
	Survey      []survey.Row                `yaml:"survey"`
	Prices      PriceDef                    `yaml:"prices"`
	Assumptions model.SimulationAssumptions `yaml:"assumptions"`
	Costs       model.CostAssumptions       `yaml:"costs"`
	Solve       bool                        `yaml:"solve,omitempty"`
	Expected    Expected                    `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := Scenario{
		StepMinutes: 15,
		Assumptions: model.SimulationAssumptions{RealityDiscountFactor: 1},
		Costs:       model.CostAssumptions{AvailabilityFactor: 1},
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	sc.Assumptions.SetDefaults()
	if sc.Expected.Tolerance == 0 {
		sc.Expected.Tolerance = 1e-6
	}
	return &sc, nil
}

// Inputs materialises a constant load per appliance and the price profile
// over Day.
func (s *Scenario) Inputs() scenario.Inputs {
	step := time.Duration(s.StepMinutes) * time.Minute
	n := int(24 * time.Hour / step)
	times := make([]time.Time, n)
	prices := make([]float64, n)
	peak := map[int]bool{}
	for _, h := range s.Prices.PeakHours {
		peak[h] = true
	}
	for i := range times {
		times[i] = Day.Add(time.Duration(i) * step)
		prices[i] = s.Prices.Base
		if peak[times[i].Hour()] {
			prices[i] = s.Prices.Peak
		}
	}
	load := model.LoadTable{Times: times, Unit: model.KW, Series: make(map[string][]float64, len(s.LoadKW))}
	for a, kw := range s.LoadKW {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = kw
		}
		load.Series[a] = vals
	}
	return scenario.Inputs{
		Records: survey.Normalize(s.Survey, survey.DefaultDurationBuckets()),
		Load:    load,
		Prices:  model.PriceSeries{TimeSeries: model.TimeSeries{Times: times, Values: prices}, Unit: model.EURPerMWh},
	}
}

func (s *Scenario) Params() scenario.Params {
	return scenario.Params{Assumptions: s.Assumptions, Costs: s.Costs}
}
