// Package provider declares the collaborators that feed the engine with
// survey records, load curves and market prices. Implementations live in
// infra/dataset and connectors/.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/drflex/core/model"
)

// ErrNoData is returned when a provider has nothing for the requested range
// or appliances.
var ErrNoData = errors.New("no data")

// FlexibilityProvider returns one record per (respondent, appliance). Missing
// join partners yield records with null fields, never dropped rows.
type FlexibilityProvider interface {
	Records(ctx context.Context) ([]model.FlexibilityRecord, error)
}

// LoadCurveProvider returns per-appliance power over [start, end). The
// returned table declares its power unit.
type LoadCurveProvider interface {
	LoadCurves(ctx context.Context, appliances []string, start, end time.Time) (model.LoadTable, error)
}

// SpotPriceProvider returns wholesale prices over [start, end).
type SpotPriceProvider interface {
	SpotPrices(ctx context.Context, start, end time.Time) (model.PriceSeries, error)
}

// BalancingProvider returns balancing-energy volumes and prices over
// [start, end).
type BalancingProvider interface {
	Balancing(ctx context.Context, start, end time.Time) (model.BalancingSeries, error)
}
