package scenario

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/core/participation"
)

var day = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

// quarterLoad builds a 6 h, 15 min load table with constant columns.
func quarterLoad(unit model.PowerUnit, cols map[string]float64) model.LoadTable {
	n := 24
	lt := model.LoadTable{Times: make([]time.Time, n), Unit: unit, Series: map[string][]float64{}}
	for i := range lt.Times {
		lt.Times[i] = day.Add(time.Duration(i) * 15 * time.Minute)
	}
	for name, v := range cols {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = v
		}
		lt.Series[name] = vals
	}
	return lt
}

func flatPrice(v float64) model.PriceSeries {
	return model.PriceSeries{
		TimeSeries: model.TimeSeries{Times: []time.Time{day}, Values: []float64{v}},
		Unit:       model.EURPerMWh,
	}
}

func baseInputs() Inputs {
	return Inputs{
		Records: []model.FlexibilityRecord{
			model.NewFlexibilityRecord("r1", "dishwasher", model.IncentiveConditional, model.Float(4.5), model.Float(10)),
			model.NewFlexibilityRecord("r1", "dryer", model.IncentiveFixed, model.Float(12), nil),
		},
		Load:   quarterLoad(model.KW, map[string]float64{"dishwasher": 1, "oven": 3}),
		Prices: flatPrice(100),
	}
}

func event(incentive float64) model.EventParameters {
	return model.EventParameters{Start: day.Add(time.Hour), End: day.Add(3 * time.Hour), IncentivePct: incentive}
}

func params(payback model.PaybackType) Params {
	return Params{
		Assumptions: model.SimulationAssumptions{
			RealityDiscountFactor: 0.8,
			Payback:               model.PaybackModel{Type: payback, DurationH: 1},
		},
		Costs: model.CostAssumptions{HouseholdPricePerKWh: 0.2, AvailabilityFactor: 1, ActivationCostPerMWh: 50},
	}
}

func TestEvaluateConcreteScenario(t *testing.T) {
	o := New()
	res := o.Evaluate(baseInputs(), event(15), params(model.PaybackNone))

	assert.Equal(t, []string{"dishwasher"}, res.Appliances(), "appliances on one side only are ignored")
	assert.Equal(t, 1.0, res.Participation["dishwasher"].Rate)
	assert.Equal(t, 1.0, res.ParticipationRate)
	assert.InDelta(t, 2.0*0.8, res.ShiftedKWh, 1e-9)
	assert.InDelta(t, 1.6, res.ApplianceKWh["dishwasher"], 1e-9)

	// baseline is the dishwasher only: 6 kWh at 100 EUR/MWh
	assert.InDelta(t, 0.6, res.Costs.BaselineMarketCost, 1e-9)
	assert.InDelta(t, 0.16, res.Costs.MarketSavings, 1e-9)
	assert.InDelta(t, 1.6*0.15*0.2, res.Costs.IncentiveCost, 1e-9)
	assert.Equal(t, 0.0, res.Costs.BalancingSavings)
	assert.InDelta(t, res.Costs.MarketSavings+res.Costs.BalancingSavings-res.Costs.IncentiveCost, res.Costs.NetValue, 1e-12)

	for i, ts := range res.Scenario.Times {
		want := 1.0
		if event(15).Contains(ts) {
			want = 0.2
		}
		if math.Abs(res.Scenario.Values[i]-want) > 1e-9 {
			t.Fatalf("scenario at %s = %v, want %v", ts, res.Scenario.Values[i], want)
		}
	}
}

func TestEvaluateReboundConservesMarketCostUnderFlatPrice(t *testing.T) {
	res := New().Evaluate(baseInputs(), event(15), params(model.PaybackUniform))
	assert.InDelta(t, 1.6, res.ShiftedKWh, 1e-9)
	assert.InDelta(t, 0, res.Costs.MarketSavings, 1e-9)
	assert.InDelta(t, res.Baseline.Sum(), res.Scenario.Sum(), 1e-9)
	assert.Less(t, res.Costs.NetValue, 0.0)
}

func TestEvaluateBalancingSavings(t *testing.T) {
	in := baseInputs()
	in.Balancing = model.BalancingSeries{{Time: day, VolumeMW: 10, PriceEURMWh: 200}}
	res := New().Evaluate(in, event(15), params(model.PaybackNone))
	// 0.8 kW displaceable over eight quarter hours at 150 EUR/MWh margin
	assert.InDelta(t, 0.0008*0.25*150*8, res.Costs.BalancingSavings, 1e-9)
}

func TestEvaluateMWUnit(t *testing.T) {
	in := baseInputs()
	in.Load = quarterLoad(model.MW, map[string]float64{"dishwasher": 0.001})
	res := New().Evaluate(in, event(15), params(model.PaybackNone))
	assert.InDelta(t, 1.6, res.ShiftedKWh, 1e-9)
	assert.InDelta(t, 0.16, res.Costs.MarketSavings, 1e-9)
}

func TestEvaluateEmptyLoad(t *testing.T) {
	in := baseInputs()
	in.Load = model.LoadTable{}
	res := New().Evaluate(in, event(15), params(model.PaybackUniform))
	assert.Empty(t, res.Shifted)
	assert.Empty(t, res.Participation)
	assert.Equal(t, 0.0, res.ShiftedKWh)
	assert.Equal(t, model.CostBreakdown{}, res.Costs)
}

func TestEvaluateNoParticipation(t *testing.T) {
	res := New().Evaluate(baseInputs(), event(5), params(model.PaybackUniform))
	assert.Equal(t, 0.0, res.ParticipationRate)
	assert.Equal(t, 0.0, res.ShiftedKWh)
	assert.Equal(t, 0.0, res.Costs.NetValue)
}

func TestEvaluateSkipsMismatchedColumn(t *testing.T) {
	in := baseInputs()
	in.Load.Series["dishwasher"] = []float64{1, 2}
	res := New().Evaluate(in, event(15), params(model.PaybackNone))
	assert.Empty(t, res.Appliances())
	require.Len(t, res.Baseline.Values, len(in.Load.Times))
	assert.Equal(t, 0.0, res.Baseline.Sum())
}

func TestEvaluateLogNormalMethod(t *testing.T) {
	in := baseInputs()
	in.Records = append(in.Records,
		model.NewFlexibilityRecord("r2", "dishwasher", model.IncentiveFixed, model.Float(2), nil),
		model.NewFlexibilityRecord("r3", "dishwasher", model.IncentiveFixed, model.Float(9), nil),
	)
	res := New(WithMethod(participation.MethodLogNormal)).Evaluate(in, event(15), params(model.PaybackNone))
	rate := res.Participation["dishwasher"].Rate
	assert.Greater(t, rate, 0.0)
	assert.LessOrEqual(t, rate, 1.0)
	assert.InDelta(t, 2*0.8*rate, res.ShiftedKWh, 1e-9)
}
