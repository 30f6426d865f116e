package dataset

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/core/provider"
)

var t0 = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func TestSurveyFileYAML(t *testing.T) {
	recs, err := SurveyFile{Path: "testdata/survey.yaml"}.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 4)

	r1 := recs[0]
	assert.Equal(t, model.IncentiveConditional, r1.Mode)
	require.NotNil(t, r1.MaxDurationH)
	assert.Equal(t, 4.5, *r1.MaxDurationH)
	assert.Equal(t, 10.0, *r1.RequiredPct)

	wm := recs[1]
	assert.Equal(t, model.IncentiveFixed, wm.Mode)
	assert.Equal(t, 0.0, *wm.MaxDurationH)
	assert.Equal(t, 0.0, *wm.RequiredPct)

	refuse := recs[2]
	assert.Equal(t, model.IncentiveRefuse, refuse.Mode)
	assert.Equal(t, 2.0, *refuse.MaxDurationH)
	assert.Nil(t, refuse.RequiredPct)

	missing := recs[3]
	assert.Equal(t, model.IncentiveUnknown, missing.Mode)
	assert.Nil(t, missing.MaxDurationH)
}

func TestSurveyFileJSON(t *testing.T) {
	recs, err := SurveyFile{Path: "testdata/survey.json"}.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 12.0, *recs[0].MaxDurationH)
	assert.Equal(t, model.IncentiveFixed, recs[0].Mode)
	assert.Nil(t, recs[1].MaxDurationH)
	assert.Nil(t, recs[1].RequiredPct)
}

func TestSurveyFileMissing(t *testing.T) {
	_, err := SurveyFile{Path: "testdata/nope.yaml"}.Records(context.Background())
	assert.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	l := LoadCSV{Path: "testdata/load.csv", Unit: model.KW}
	lt, err := l.LoadCurves(context.Background(), []string{"dishwasher", "washing_machine", "heat_pump"}, t0, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, lt.Times, 4)
	assert.True(t, lt.Times[0].Equal(t0))
	assert.Equal(t, model.KW, lt.Unit)
	assert.Equal(t, []float64{0.3, 0.35, 0.4, 0.5}, lt.Series["dishwasher"])
	assert.Len(t, lt.Series, 2)

	all, err := l.LoadCurves(context.Background(), nil, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all.Series, 3)
	assert.Len(t, all.Times, 5)

	_, err = l.LoadCurves(context.Background(), []string{"heat_pump"}, t0, t0.Add(time.Hour))
	assert.True(t, errors.Is(err, provider.ErrNoData))
	_, err = l.LoadCurves(context.Background(), nil, t0.Add(24*time.Hour), t0.Add(25*time.Hour))
	assert.True(t, errors.Is(err, provider.ErrNoData))
}

func TestPriceCSVKeepsPriorPoint(t *testing.T) {
	c := Conf{Delimiter: ";"}
	p := PriceCSV{Path: "testdata/prices.csv", Unit: model.EURPerMWh, Conf: c}
	ps, err := p.SpotPrices(context.Background(), t0.Add(30*time.Minute), t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 2, ps.Len())
	assert.True(t, ps.Times[0].Equal(t0))
	assert.Equal(t, []float64{80, 90}, ps.Values)

	ps, err = p.SpotPrices(context.Background(), t0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []float64{80}, ps.Values)

	ps, err = p.SpotPrices(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []float64{70.5, 80, 90}, ps.Values)
}

func TestBalancingCSV(t *testing.T) {
	b := BalancingCSV{Path: "testdata/balancing.csv"}
	bs, err := b.Balancing(context.Background(), t0, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, bs, 3)
	assert.Equal(t, 120.0, bs[0].VolumeMW)
	assert.Equal(t, 150.0, bs[0].PriceEURMWh)
	assert.Equal(t, -30.0, bs[2].VolumeMW)
}

func TestParseTableErrors(t *testing.T) {
	_, err := parseTable(strings.NewReader(""), ',', time.UTC)
	assert.Error(t, err)
	_, err = parseTable(strings.NewReader("timestamp,x\nyesterday,1\n"), ',', time.UTC)
	assert.Error(t, err)
}

func TestParseTimeZoneless(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	ts, err := parseTime("2024-01-15 01:00", paris)
	require.NoError(t, err)
	assert.True(t, ts.Equal(t0))
}

func TestConfAndProviders(t *testing.T) {
	c := Conf{}
	c.SetDefaults()
	require.NoError(t, c.Validate())
	assert.Equal(t, "kW", c.LoadUnit)

	bad := c
	bad.LoadUnit = "GW"
	assert.Error(t, bad.Validate())
	bad = c
	bad.Delimiter = ";;"
	assert.Error(t, bad.Validate())

	fp, lp, sp, bp, err := Providers(Conf{Survey: "testdata/survey.yaml", Load: "testdata/load.csv", LoadUnit: "mw"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, fp)
	require.NotNil(t, lp)
	assert.Nil(t, sp)
	assert.Nil(t, bp)
	assert.Equal(t, model.MW, lp.(LoadCSV).Unit)
}
