package model

import "sort"

// Participation is the outcome of the participation model for one appliance.
type Participation struct {
	BasePopulation   int     `json:"base_population"`
	ParticipantCount int     `json:"participant_count"`
	Rate             float64 `json:"rate"`
}

// CostBreakdown holds the monetary components of a scenario.
type CostBreakdown struct {
	BaselineMarketCost float64 `json:"baseline_market_cost"`
	ScenarioMarketCost float64 `json:"scenario_market_cost"`
	MarketSavings      float64 `json:"market_savings"`
	IncentiveCost      float64 `json:"incentive_cost"`
	BalancingSavings   float64 `json:"balancing_savings"`
	NetValue           float64 `json:"net_value"`
}

// SimulationResult is the immutable output of one scenario evaluation.
type SimulationResult struct {
	Event         EventParameters          `json:"event"`
	Unit          PowerUnit                `json:"unit"`
	Shifted       map[string]TimeSeries    `json:"shifted"`
	Rebound       map[string]TimeSeries    `json:"rebound"`
	Baseline      TimeSeries               `json:"baseline"`
	Scenario      TimeSeries               `json:"scenario"`
	ShiftedKWh    float64                  `json:"shifted_kwh"`
	ApplianceKWh  map[string]float64       `json:"appliance_kwh"`
	Participation map[string]Participation `json:"participation"`
	// ParticipationRate is participants over base population across all
	// evaluated appliances.
	ParticipationRate float64       `json:"participation_rate"`
	Costs             CostBreakdown `json:"costs"`
}

// EmptyResult returns a zero result for the event.
func EmptyResult(event EventParameters, unit PowerUnit) SimulationResult {
	return SimulationResult{
		Event:         event,
		Unit:          unit,
		Shifted:       map[string]TimeSeries{},
		Rebound:       map[string]TimeSeries{},
		ApplianceKWh:  map[string]float64{},
		Participation: map[string]Participation{},
	}
}

// Appliances returns the appliances with a participation or a shifted series,
// in sorted order.
func (r SimulationResult) Appliances() []string {
	seen := make(map[string]struct{}, len(r.Participation))
	for a := range r.Participation {
		seen[a] = struct{}{}
	}
	for a := range r.Shifted {
		seen[a] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
