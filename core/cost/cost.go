// Package cost prices load curves and demand-response outcomes. All
// functions are pure and return zero for degenerate input.
package cost

import (
	"math"

	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/core/series"
)

// MarketCost prices a load curve against a market price series. Prices are
// aligned onto the load index with forward then backward fill and converted
// to EUR/MWh; power is converted to MW. A load curve whose spacing cannot be
// inferred costs zero.
func MarketCost(load model.TimeSeries, unit model.PowerUnit, prices model.PriceSeries) float64 {
	stepH, ok := series.IntervalHours(load.Times)
	if !ok || prices.Len() == 0 {
		return 0
	}
	aligned := series.Reindex(prices.TimeSeries, load.Times)
	toMW := unit.MWFactor()
	toPerMWh := prices.Unit.PerMWhFactor()
	var total float64
	for i, p := range load.Values {
		total += p * toMW * stepH * aligned[i] * toPerMWh
	}
	return total
}

// IncentiveCost is the payout for shifted energy at a per-kWh rate. Negative
// operands count as zero.
func IncentiveCost(shiftedKWh, payoutPerKWh float64) float64 {
	return math.Max(0, shiftedKWh) * math.Max(0, payoutPerKWh)
}

// BalancingParams configures BalancingSavings.
type BalancingParams struct {
	IntervalH            float64
	ActivationCostPerMWh float64
	AvailabilityFactor   float64
}

// BalancingSavings values displaceable power against called balancing
// energy. An interval contributes only when volume was called, the
// activation cost is below the balancing price and the derated power is
// positive. balancing is aligned onto the displaceable index first.
func BalancingSavings(balancing model.BalancingSeries, displaceableMW model.TimeSeries, p BalancingParams) float64 {
	if p.IntervalH <= 0 || displaceableMW.Len() == 0 {
		return 0
	}
	aligned := series.ReindexBalancing(balancing, displaceableMW.Times)
	var total float64
	for i, pt := range aligned {
		if pt.VolumeMW <= 0 || p.ActivationCostPerMWh >= pt.PriceEURMWh {
			continue
		}
		derated := displaceableMW.Values[i] * p.AvailabilityFactor
		if derated <= 0 {
			continue
		}
		displaced := math.Min(pt.VolumeMW, derated)
		total += displaced * p.IntervalH * (pt.PriceEURMWh - p.ActivationCostPerMWh)
	}
	return total
}
