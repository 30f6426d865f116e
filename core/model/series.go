package model

import (
	"fmt"
	"strings"
	"time"
)

// PowerUnit is the unit of a power series.
type PowerUnit string

const (
	KW PowerUnit = "kW"
	MW PowerUnit = "MW"
)

// ParsePowerUnit accepts "kw" or "mw" in any case.
func ParsePowerUnit(s string) (PowerUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kw":
		return KW, nil
	case "mw":
		return MW, nil
	default:
		return "", fmt.Errorf("unknown power unit %q", s)
	}
}

// KWFactor converts one unit of u into kW. Unknown units are treated as kW.
func (u PowerUnit) KWFactor() float64 {
	if u == MW {
		return 1000
	}
	return 1
}

// MWFactor converts one unit of u into MW.
func (u PowerUnit) MWFactor() float64 {
	return u.KWFactor() / 1000
}

// TimeSeries is a time-indexed series of values. Times are expected to be
// strictly increasing and regularly spaced.
type TimeSeries struct {
	Times  []time.Time `json:"times"`
	Values []float64   `json:"values"`
}

// Len returns the number of points.
func (s TimeSeries) Len() int { return len(s.Times) }

// Sum returns the sum of all values.
func (s TimeSeries) Sum() float64 {
	var total float64
	for _, v := range s.Values {
		total += v
	}
	return total
}

// ZeroLike returns a series with the same index and all values set to zero.
func (s TimeSeries) ZeroLike() TimeSeries {
	times := make([]time.Time, len(s.Times))
	copy(times, s.Times)
	return TimeSeries{Times: times, Values: make([]float64, len(s.Times))}
}

// LoadTable holds per-appliance power on a shared index.
type LoadTable struct {
	Times  []time.Time          `json:"times"`
	Unit   PowerUnit            `json:"unit"`
	Series map[string][]float64 `json:"series"`
}

// Appliance returns the appliance column as a TimeSeries.
func (t LoadTable) Appliance(name string) (TimeSeries, bool) {
	vals, ok := t.Series[name]
	if !ok || len(vals) != len(t.Times) {
		return TimeSeries{}, false
	}
	return TimeSeries{Times: t.Times, Values: vals}, true
}

// Empty reports whether the table holds no usable data.
func (t LoadTable) Empty() bool {
	return len(t.Times) == 0 || len(t.Series) == 0
}

// PriceUnit is the unit of a market price.
type PriceUnit string

const (
	EURPerMWh PriceUnit = "EUR/MWh"
	EURPerKWh PriceUnit = "EUR/kWh"
)

// PerMWhFactor converts a price in unit p into EUR/MWh. Unknown units are
// treated as EUR/MWh, the usual market convention.
func (p PriceUnit) PerMWhFactor() float64 {
	if p == EURPerKWh {
		return 1000
	}
	return 1
}

// PriceSeries is a market price series, possibly coarser than the load data.
type PriceSeries struct {
	TimeSeries
	Unit PriceUnit `json:"unit"`
}

// BalancingPoint is one balancing market interval.
type BalancingPoint struct {
	Time time.Time `json:"time"`
	// VolumeMW is the called balancing volume.
	VolumeMW float64 `json:"volume_mw"`
	// PriceEURMWh is the balancing energy price.
	PriceEURMWh float64 `json:"price_eur_mwh"`
}

// BalancingSeries is a time-ordered list of balancing market intervals.
type BalancingSeries []BalancingPoint
