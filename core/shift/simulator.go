// Package shift simulates the physical effect of a demand-response event on
// appliance load: the power removed during the event window and the rebound
// that pays the deferred energy back afterwards.
package shift

import (
	"math"
	"sort"
	"time"

	"github.com/kilianp07/drflex/core/logger"
	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/core/series"
)

// Output holds the per-appliance shifted and rebound power, in the unit of
// the load table, and the shifted energy in kWh.
type Output struct {
	Unit      model.PowerUnit
	StepH     float64
	Shifted   map[string]model.TimeSeries
	Rebound   map[string]model.TimeSeries
	EnergyKWh map[string]float64
}

// TotalKWh sums the shifted energy over all appliances.
func (o Output) TotalKWh() float64 {
	var total float64
	for _, e := range o.EnergyKWh {
		total += e
	}
	return total
}

// Simulator applies participation rates to load curves.
type Simulator struct {
	log logger.Logger
}

// NewSimulator returns a Simulator logging degraded cases to log.
func NewSimulator(log logger.Logger) *Simulator {
	return &Simulator{log: logger.OrNop(log)}
}

// Simulate shifts every appliance in rates that also has a load column. If
// the load spacing cannot be inferred or the event window misses the load
// index, every series is returned as zeros.
func (s *Simulator) Simulate(load model.LoadTable, rates map[string]float64, ev model.EventParameters, a model.SimulationAssumptions) Output {
	out := Output{
		Unit:      load.Unit,
		Shifted:   make(map[string]model.TimeSeries),
		Rebound:   make(map[string]model.TimeSeries),
		EnergyKWh: make(map[string]float64),
	}
	appliances := make([]string, 0, len(rates))
	for name := range rates {
		if _, ok := load.Appliance(name); ok {
			appliances = append(appliances, name)
		}
	}
	sort.Strings(appliances)

	step, ok := series.InferInterval(load.Times)
	window := series.WindowIndices(load.Times, ev)
	if !ok || len(window) == 0 {
		if !ok {
			s.log.Warnf("shift: cannot infer load interval from %d points, returning zero series", len(load.Times))
		} else {
			s.log.Debugf("shift: event %s-%s outside load index, returning zero series", ev.Start.Format(time.RFC3339), ev.End.Format(time.RFC3339))
		}
		for _, name := range appliances {
			out.Shifted[name] = model.TimeSeries{Times: load.Times, Values: make([]float64, len(load.Times))}
			if ok {
				out.Rebound[name] = reboundIndex(ev, a.Payback, step)
			} else {
				out.Rebound[name] = model.TimeSeries{}
			}
			out.EnergyKWh[name] = 0
		}
		if ok {
			out.StepH = step.Hours()
		}
		return out
	}
	out.StepH = step.Hours()

	for _, name := range appliances {
		base, _ := load.Appliance(name)
		effective := rates[name] * a.RealityDiscountFactor
		shifted := make([]float64, len(base.Values))
		if effective > 0 {
			for _, i := range window {
				if p := base.Values[i]; p > 0 {
					shifted[i] = p * effective
				}
			}
		}
		energy := series.Energy(shifted, out.StepH)
		out.Shifted[name] = model.TimeSeries{Times: load.Times, Values: shifted}
		out.EnergyKWh[name] = energy * load.Unit.KWFactor()
		out.Rebound[name] = rebound(energy, ev, a.Payback, step)
	}
	return out
}

// reboundIndex returns the zero-valued rebound series for the payback model.
func reboundIndex(ev model.EventParameters, p model.PaybackModel, step time.Duration) model.TimeSeries {
	if p.Type != model.PaybackUniform || step <= 0 {
		return model.TimeSeries{}
	}
	n := int(math.Round(p.DurationH / step.Hours()))
	if n < 1 {
		n = 1
	}
	start := ev.End.Add(time.Duration(p.DelayH * float64(time.Hour)))
	ts := model.TimeSeries{Times: make([]time.Time, n), Values: make([]float64, n)}
	for i := range ts.Times {
		ts.Times[i] = start.Add(time.Duration(i) * step)
	}
	return ts
}

// rebound spreads energy (unit*h) uniformly over the payback window so that
// its integral equals energy.
func rebound(energy float64, ev model.EventParameters, p model.PaybackModel, step time.Duration) model.TimeSeries {
	ts := reboundIndex(ev, p, step)
	if len(ts.Times) == 0 || energy <= 0 {
		return ts
	}
	power := energy / (float64(len(ts.Times)) * step.Hours())
	for i := range ts.Values {
		ts.Values[i] = power
	}
	return ts
}
