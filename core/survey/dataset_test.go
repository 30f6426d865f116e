package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drflex/core/model"
)

func TestNormalize(t *testing.T) {
	rows := []Row{
		{RespondentID: "1", Appliance: "washer", DurationAnswer: "3_6h", IncentiveAnswer: "conditional", RequiredPct: model.Float(10)},
		{RespondentID: "1", Appliance: "dryer", DurationAnswer: "NEVER", IncentiveAnswer: "fixed", RequiredPct: model.Float(40)},
		{RespondentID: "2", Appliance: "washer", DurationHours: model.Float(1.5), IncentiveAnswer: "refuse", RequiredPct: model.Float(5)},
		{RespondentID: "3", Appliance: "washer", DurationAnswer: "whenever"},
		{RespondentID: "4", DurationAnswer: "1_3h"},
	}
	recs := Normalize(rows, nil)
	require.Len(t, recs, 4)

	assert.Equal(t, 4.5, *recs[0].MaxDurationH)
	assert.Equal(t, model.IncentiveConditional, recs[0].Mode)
	assert.Equal(t, 10.0, *recs[0].RequiredPct)

	assert.Equal(t, 0.0, *recs[1].MaxDurationH)
	assert.Equal(t, 0.0, *recs[1].RequiredPct, "fixed forces 0 pct")

	assert.Equal(t, 1.5, *recs[2].MaxDurationH)
	assert.Nil(t, recs[2].RequiredPct, "refuse drops pct")

	assert.Nil(t, recs[3].MaxDurationH, "unknown bucket maps to nil")
	assert.Equal(t, model.IncentiveUnknown, recs[3].Mode)
}

func TestBucketsHoursAndValidate(t *testing.T) {
	b := DefaultDurationBuckets()
	h, ok := b.Hours(" GT_12H ")
	assert.True(t, ok)
	assert.Equal(t, 12.0, h)
	_, ok = b.Hours("")
	assert.False(t, ok)
	assert.NoError(t, b.Validate())
	b["weird"] = -1
	assert.Error(t, b.Validate())
}

func TestAppliancesAndDurations(t *testing.T) {
	recs := []model.FlexibilityRecord{
		{Appliance: "washer", MaxDurationH: model.Float(2)},
		{Appliance: "dishwasher", MaxDurationH: model.Float(0)},
		{Appliance: "washer", MaxDurationH: nil},
		{Appliance: "washer", MaxDurationH: model.Float(4.5)},
	}
	assert.Equal(t, []string{"dishwasher", "washer"}, Appliances(recs))
	assert.Equal(t, []float64{2, 4.5}, PositiveDurations(recs, "washer"))
	assert.Empty(t, PositiveDurations(recs, "dishwasher"))
	assert.Len(t, ForAppliance(recs, "washer"), 3)
}
