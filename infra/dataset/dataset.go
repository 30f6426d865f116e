// Package dataset implements the engine's providers on local files: survey
// rows in YAML or JSON, and load, spot price and balancing tables in CSV.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/core/provider"
	"github.com/kilianp07/drflex/core/survey"
)

// Conf lists the input files and how to read them.
type Conf struct {
	Survey    string `json:"survey"`
	Load      string `json:"load"`
	LoadUnit  string `json:"load_unit"`
	Prices    string `json:"prices"`
	PriceUnit string `json:"price_unit"`
	Balancing string `json:"balancing"`
	// Delimiter is the CSV separator, "," by default.
	Delimiter string `json:"delimiter"`
	// Timezone applies to timestamps without an offset. Default UTC.
	Timezone string `json:"timezone"`
}

// SetDefaults fills units and delimiter.
func (c *Conf) SetDefaults() {
	if c.LoadUnit == "" {
		c.LoadUnit = string(model.KW)
	}
	if c.PriceUnit == "" {
		c.PriceUnit = string(model.EURPerMWh)
	}
	if c.Delimiter == "" {
		c.Delimiter = ","
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

// Validate checks units, delimiter and timezone.
func (c Conf) Validate() error {
	if _, err := model.ParsePowerUnit(c.LoadUnit); err != nil {
		return fmt.Errorf("inputs.load_unit: %w", err)
	}
	switch model.PriceUnit(c.PriceUnit) {
	case model.EURPerMWh, model.EURPerKWh:
	default:
		return fmt.Errorf("inputs.price_unit: unknown unit %q", c.PriceUnit)
	}
	if len([]rune(c.Delimiter)) != 1 {
		return fmt.Errorf("inputs.delimiter must be a single character")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("inputs.timezone: %w", err)
	}
	return nil
}

func (c Conf) comma() rune {
	if r := []rune(c.Delimiter); len(r) == 1 {
		return r[0]
	}
	return ','
}

func (c Conf) location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SurveyFile reads joined survey rows and normalises them.
type SurveyFile struct {
	Path    string
	Buckets survey.DurationBuckets
}

var _ provider.FlexibilityProvider = SurveyFile{}

// Records implements provider.FlexibilityProvider. .json files are decoded
// as JSON, anything else as YAML. The file holds either a list of rows or a
// mapping with a "rows" key.
func (s SurveyFile) Records(ctx context.Context) ([]model.FlexibilityRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read survey: %w", err)
	}
	rows, err := decodeRows(data, strings.EqualFold(filepath.Ext(s.Path), ".json"))
	if err != nil {
		return nil, fmt.Errorf("decode survey %s: %w", s.Path, err)
	}
	recs := survey.Normalize(rows, s.Buckets)
	if len(recs) == 0 {
		return nil, fmt.Errorf("survey %s: %w", s.Path, provider.ErrNoData)
	}
	return recs, nil
}

func decodeRows(data []byte, isJSON bool) ([]survey.Row, error) {
	var wrapped struct {
		Rows []survey.Row `json:"rows" yaml:"rows"`
	}
	var rows []survey.Row
	if isJSON {
		if err := json.Unmarshal(data, &rows); err == nil {
			return rows, nil
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, err
		}
		return wrapped.Rows, nil
	}
	if err := yaml.Unmarshal(data, &rows); err == nil {
		return rows, nil
	}
	if err := yaml.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Rows, nil
}

// LoadCSV reads a wide table: a timestamp column followed by one power
// column per appliance.
type LoadCSV struct {
	Path string
	Unit model.PowerUnit
	Conf Conf
}

var _ provider.LoadCurveProvider = LoadCSV{}

// LoadCurves implements provider.LoadCurveProvider. Requested appliances
// without a column are left out; an empty request returns every column.
func (l LoadCSV) LoadCurves(ctx context.Context, appliances []string, start, end time.Time) (model.LoadTable, error) {
	if err := ctx.Err(); err != nil {
		return model.LoadTable{}, err
	}
	t, err := readTable(l.Path, l.Conf.comma(), l.Conf.location())
	if err != nil {
		return model.LoadTable{}, fmt.Errorf("read load %s: %w", l.Path, err)
	}
	cols := map[string]int{}
	if len(appliances) == 0 {
		for i, h := range t.header[1:] {
			cols[strings.TrimSpace(h)] = i + 1
		}
	} else {
		for _, a := range appliances {
			if i := t.column(a); i > 0 {
				cols[a] = i
			}
		}
	}
	lo, hi := t.window(start, end, false)
	if len(cols) == 0 || hi == lo {
		return model.LoadTable{}, fmt.Errorf("load %s: %w", l.Path, provider.ErrNoData)
	}
	out := model.LoadTable{
		Times:  append([]time.Time(nil), t.times[lo:hi]...),
		Unit:   l.Unit,
		Series: make(map[string][]float64, len(cols)),
	}
	for name, c := range cols {
		vals := make([]float64, hi-lo)
		for i := lo; i < hi; i++ {
			if vals[i-lo], err = t.float(i, c); err != nil {
				return model.LoadTable{}, err
			}
		}
		out.Series[name] = vals
	}
	return out, nil
}

// PriceCSV reads a timestamp,price table.
type PriceCSV struct {
	Path string
	Unit model.PriceUnit
	Conf Conf
}

var _ provider.SpotPriceProvider = PriceCSV{}

// SpotPrices implements provider.SpotPriceProvider. The last price before
// start is kept so that forward fill covers the start of the window.
func (p PriceCSV) SpotPrices(ctx context.Context, start, end time.Time) (model.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return model.PriceSeries{}, err
	}
	t, err := readTable(p.Path, p.Conf.comma(), p.Conf.location())
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("read prices %s: %w", p.Path, err)
	}
	col := t.column("price")
	if col < 0 {
		col = 1
	}
	lo, hi := t.window(start, end, true)
	if hi == lo {
		return model.PriceSeries{}, fmt.Errorf("prices %s: %w", p.Path, provider.ErrNoData)
	}
	out := model.PriceSeries{
		TimeSeries: model.TimeSeries{Times: append([]time.Time(nil), t.times[lo:hi]...), Values: make([]float64, hi-lo)},
		Unit:       p.Unit,
	}
	for i := lo; i < hi; i++ {
		if out.Values[i-lo], err = t.float(i, col); err != nil {
			return model.PriceSeries{}, err
		}
	}
	return out, nil
}

// BalancingCSV reads a timestamp,volume_mw,price_eur_mwh table.
type BalancingCSV struct {
	Path string
	Conf Conf
}

var _ provider.BalancingProvider = BalancingCSV{}

// Balancing implements provider.BalancingProvider.
func (b BalancingCSV) Balancing(ctx context.Context, start, end time.Time) (model.BalancingSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := readTable(b.Path, b.Conf.comma(), b.Conf.location())
	if err != nil {
		return nil, fmt.Errorf("read balancing %s: %w", b.Path, err)
	}
	vol, price := t.column("volume_mw"), t.column("price_eur_mwh")
	if vol < 0 || price < 0 {
		return nil, fmt.Errorf("balancing %s: volume_mw and price_eur_mwh columns required", b.Path)
	}
	lo, hi := t.window(start, end, true)
	if hi == lo {
		return nil, fmt.Errorf("balancing %s: %w", b.Path, provider.ErrNoData)
	}
	out := make(model.BalancingSeries, 0, hi-lo)
	for i := lo; i < hi; i++ {
		v, err := t.float(i, vol)
		if err != nil {
			return nil, err
		}
		pr, err := t.float(i, price)
		if err != nil {
			return nil, err
		}
		out = append(out, model.BalancingPoint{Time: t.times[i], VolumeMW: v, PriceEURMWh: pr})
	}
	return out, nil
}

// Providers builds the file providers from c. Empty paths yield nil
// providers.
func Providers(c Conf, buckets survey.DurationBuckets) (provider.FlexibilityProvider, provider.LoadCurveProvider, provider.SpotPriceProvider, provider.BalancingProvider, error) {
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, nil, nil, nil, err
	}
	unit, _ := model.ParsePowerUnit(c.LoadUnit)
	var (
		fp provider.FlexibilityProvider
		lp provider.LoadCurveProvider
		sp provider.SpotPriceProvider
		bp provider.BalancingProvider
	)
	if c.Survey != "" {
		fp = SurveyFile{Path: c.Survey, Buckets: buckets}
	}
	if c.Load != "" {
		lp = LoadCSV{Path: c.Load, Unit: unit, Conf: c}
	}
	if c.Prices != "" {
		sp = PriceCSV{Path: c.Prices, Unit: model.PriceUnit(c.PriceUnit), Conf: c}
	}
	if c.Balancing != "" {
		bp = BalancingCSV{Path: c.Balancing, Conf: c}
	}
	return fp, lp, sp, bp, nil
}
