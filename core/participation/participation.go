// Package participation estimates which share of the surveyed population
// would switch an appliance off for an event of a given duration at a given
// offered compensation.
package participation

import (
	"fmt"
	"math"

	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/core/willingness"
)

// Method selects how the duration condition is evaluated.
type Method string

const (
	// MethodDiscrete checks every record's stated duration.
	MethodDiscrete Method = "discrete"
	// MethodLogNormal replaces the per-record duration check by the fitted
	// survival function of the appliance's stated durations.
	MethodLogNormal Method = "lognormal"
)

// ParseMethod validates a configured method name. Empty means discrete.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "", MethodDiscrete:
		return MethodDiscrete, nil
	case MethodLogNormal:
		return MethodLogNormal, nil
	default:
		return "", fmt.Errorf("unknown participation method %s", s)
	}
}

// Evaluate counts the records of appliance whose duration and incentive
// conditions both hold.
func Evaluate(records []model.FlexibilityRecord, appliance string, durationH, incentivePct float64) model.Participation {
	var p model.Participation
	for _, r := range records {
		if r.Appliance != appliance {
			continue
		}
		p.BasePopulation++
		if r.ToleratesDuration(durationH) && r.AcceptsIncentive(incentivePct) {
			p.ParticipantCount++
		}
	}
	p.Rate = rate(p.ParticipantCount, p.BasePopulation)
	return p
}

// Smoothed uses fit for the duration condition and the records for the
// incentive condition. The participant count is the rounded expectation.
func Smoothed(records []model.FlexibilityRecord, appliance string, durationH, incentivePct float64, fit willingness.Fit) model.Participation {
	var p model.Participation
	accepting := 0
	for _, r := range records {
		if r.Appliance != appliance {
			continue
		}
		p.BasePopulation++
		if r.AcceptsIncentive(incentivePct) {
			accepting++
		}
	}
	if p.BasePopulation == 0 {
		return p
	}
	p.Rate = fit.Survival(durationH) * rate(accepting, p.BasePopulation)
	p.ParticipantCount = int(math.Round(p.Rate * float64(p.BasePopulation)))
	return p
}

// Model evaluates participation with a fixed method. Fits are computed once
// per appliance from the records passed to New.
type Model struct {
	method  Method
	records []model.FlexibilityRecord
	fits    map[string]willingness.Fit
}

// New builds a Model over records.
func New(records []model.FlexibilityRecord, method Method) *Model {
	m := &Model{method: method, records: records}
	if method == MethodLogNormal {
		m.fits = make(map[string]willingness.Fit)
		for _, r := range records {
			if _, ok := m.fits[r.Appliance]; !ok {
				m.fits[r.Appliance] = willingness.FitAppliance(records, r.Appliance)
			}
		}
	}
	return m
}

// Method returns the configured method.
func (m *Model) Method() Method { return m.method }

// Participation evaluates one appliance.
func (m *Model) Participation(appliance string, durationH, incentivePct float64) model.Participation {
	if m.method == MethodLogNormal {
		return Smoothed(m.records, appliance, durationH, incentivePct, m.fits[appliance])
	}
	return Evaluate(m.records, appliance, durationH, incentivePct)
}

func rate(n, base int) float64 {
	if base == 0 {
		return 0
	}
	return float64(n) / float64(base)
}
