package willingness

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/core/survey"
)

// Fit is a log-normal distribution with location fixed at zero, expressed in
// shape/scale form: shape is the standard deviation of log(duration) and
// scale is exp(mean of log(duration)).
type Fit struct {
	Shape   float64 `json:"shape"`
	Scale   float64 `json:"scale"`
	Samples int     `json:"samples"`
}

// Fitted reports whether at least one positive observation was used.
func (f Fit) Fitted() bool { return f.Samples > 0 && f.Scale > 0 }

// FitLogNormal computes the maximum likelihood fit over the positive
// observations. Non-positive values are ignored; with none left the returned
// Fit is unfitted and Survival is zero for every positive duration.
func FitLogNormal(durations []float64) Fit {
	logs := make([]float64, 0, len(durations))
	for _, d := range durations {
		if d > 0 && !math.IsInf(d, 0) && !math.IsNaN(d) {
			logs = append(logs, math.Log(d))
		}
	}
	if len(logs) == 0 {
		return Fit{}
	}
	mu, sigma := stat.PopMeanStdDev(logs, nil)
	return Fit{Shape: sigma, Scale: math.Exp(mu), Samples: len(logs)}
}

// FitAppliance fits the positive stated durations of one appliance.
func FitAppliance(records []model.FlexibilityRecord, appliance string) Fit {
	return FitLogNormal(survey.PositiveDurations(records, appliance))
}

// Survival returns P(duration >= x).
func (f Fit) Survival(x float64) float64 {
	if x <= 0 {
		return 1
	}
	if !f.Fitted() {
		return 0
	}
	if f.Shape == 0 {
		// all observations identical: step at the scale
		if x <= f.Scale*(1+1e-12) {
			return 1
		}
		return 0
	}
	d := distuv.LogNormal{Mu: math.Log(f.Scale), Sigma: f.Shape}
	return d.Survival(x)
}

// Median returns the fitted median duration, zero when unfitted.
func (f Fit) Median() float64 {
	if !f.Fitted() {
		return 0
	}
	return f.Scale
}
