package participation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/drflex/core/model"
)

func rec(appliance string, mode model.IncentiveMode, dur *float64, pct *float64) model.FlexibilityRecord {
	return model.NewFlexibilityRecord("r", appliance, mode, dur, pct)
}

func TestEvaluateConcreteScenario(t *testing.T) {
	recs := []model.FlexibilityRecord{
		rec("washer", model.IncentiveConditional, model.Float(4.5), model.Float(10)),
	}
	p := Evaluate(recs, "washer", 2, 15)
	assert.Equal(t, 1, p.BasePopulation)
	assert.Equal(t, 1, p.ParticipantCount)
	assert.Equal(t, 1.0, p.Rate)
}

func TestEvaluateConditions(t *testing.T) {
	recs := []model.FlexibilityRecord{
		rec("washer", model.IncentiveFixed, model.Float(3), nil),
		rec("washer", model.IncentiveConditional, model.Float(3), model.Float(20)),
		rec("washer", model.IncentiveRefuse, model.Float(12), nil),
		rec("washer", model.IncentiveUnknown, model.Float(12), nil),
		rec("washer", model.IncentiveFixed, model.Float(0), nil),
		rec("washer", model.IncentiveFixed, nil, nil),
		rec("dryer", model.IncentiveFixed, model.Float(12), nil),
	}
	p := Evaluate(recs, "washer", 2, 10)
	assert.Equal(t, 6, p.BasePopulation)
	assert.Equal(t, 1, p.ParticipantCount)

	p = Evaluate(recs, "washer", 2, 20)
	assert.Equal(t, 2, p.ParticipantCount)

	p = Evaluate(recs, "washer", 0, 20)
	assert.Equal(t, 3, p.ParticipantCount, "zero tolerance satisfies a zero-length event")

	p = Evaluate(recs, "fridge", 1, 100)
	assert.Equal(t, model.Participation{}, p)
}

func randomRecords(r *rand.Rand, n int) []model.FlexibilityRecord {
	modes := []model.IncentiveMode{model.IncentiveFixed, model.IncentiveConditional, model.IncentiveRefuse, model.IncentiveUnknown}
	durs := []float64{0, 0.5, 2, 4.5, 9, 12}
	out := make([]model.FlexibilityRecord, n)
	for i := range out {
		var dur *float64
		if r.Intn(8) > 0 {
			dur = model.Float(durs[r.Intn(len(durs))])
		}
		out[i] = rec("washer", modes[r.Intn(len(modes))], dur, model.Float(float64(r.Intn(60))))
	}
	return out
}

func TestParticipationMonotone(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	incentives := []float64{0, 5, 10, 20, 30, 50, 75, 100}
	durations := []float64{0, 0.25, 0.5, 1, 2, 4, 6, 10, 13}
	for trial := 0; trial < 20; trial++ {
		recs := randomRecords(r, 40)
		for _, method := range []Method{MethodDiscrete, MethodLogNormal} {
			s := New(recs, method).Surface("washer", durations, incentives)
			for i := range durations {
				for j := range incentives {
					if j > 0 && s.Rates[i][j] < s.Rates[i][j-1]-1e-12 {
						t.Fatalf("%s: rate decreased with incentive at d=%v", method, durations[i])
					}
					if i > 0 && s.Rates[i][j] > s.Rates[i-1][j]+1e-12 {
						t.Fatalf("%s: rate increased with duration at pct=%v", method, incentives[j])
					}
				}
			}
		}
	}
}

func TestSmoothedWithoutPositiveDurations(t *testing.T) {
	recs := []model.FlexibilityRecord{
		rec("washer", model.IncentiveFixed, model.Float(0), nil),
		rec("washer", model.IncentiveFixed, nil, nil),
	}
	m := New(recs, MethodLogNormal)
	p := m.Participation("washer", 1, 50)
	assert.Equal(t, 2, p.BasePopulation)
	assert.Equal(t, 0.0, p.Rate)
}

func TestSmoothedRate(t *testing.T) {
	recs := []model.FlexibilityRecord{
		rec("washer", model.IncentiveFixed, model.Float(2), nil),
		rec("washer", model.IncentiveRefuse, model.Float(2), nil),
	}
	p := New(recs, MethodLogNormal).Participation("washer", 2, 0)
	// identical durations fit to a step, so survival at 2h is 1 and half accept
	assert.InDelta(t, 0.5, p.Rate, 1e-9)
	assert.Equal(t, 1, p.ParticipantCount)
	assert.False(t, math.IsNaN(p.Rate))
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("")
	assert.NoError(t, err)
	assert.Equal(t, MethodDiscrete, m)
	m, err = ParseMethod("lognormal")
	assert.NoError(t, err)
	assert.Equal(t, MethodLogNormal, m)
	_, err = ParseMethod("bayes")
	assert.Error(t, err)
}
