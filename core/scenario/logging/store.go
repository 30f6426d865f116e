// Package logging keeps an audit trail of scenario evaluations and
// equilibrium searches in a rotating JSONL file or a SQLite database.
package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/drflex/core/model"
)

// Record kinds.
const (
	KindEvaluation = "evaluation"
	KindSolve      = "solve"
)

// LogRecord captures one evaluation or solve outcome.
type LogRecord struct {
	Timestamp         time.Time           `json:"timestamp"`
	Kind              string              `json:"kind"`
	ID                string              `json:"id"`
	SweepID           string              `json:"sweep_id,omitempty"`
	Method            string              `json:"method,omitempty"`
	EventStart        time.Time           `json:"event_start"`
	EventEnd          time.Time           `json:"event_end"`
	IncentivePct      float64             `json:"incentive_pct"`
	Appliances        []string            `json:"appliances"`
	ParticipationRate float64             `json:"participation_rate"`
	ShiftedKWh        float64             `json:"shifted_kwh"`
	ApplianceKWh      map[string]float64  `json:"appliance_kwh,omitempty"`
	Costs             model.CostBreakdown `json:"costs"`
	Status            string              `json:"status,omitempty"`
	Iterations        int                 `json:"iterations,omitempty"`
	Error             string              `json:"error,omitempty"`
}

// FromResult builds an evaluation record.
func FromResult(id, sweepID, method string, res model.SimulationResult, at time.Time) LogRecord {
	return LogRecord{
		Timestamp:         at,
		Kind:              KindEvaluation,
		ID:                id,
		SweepID:           sweepID,
		Method:            method,
		EventStart:        res.Event.Start,
		EventEnd:          res.Event.End,
		IncentivePct:      res.Event.IncentivePct,
		Appliances:        res.Appliances(),
		ParticipationRate: res.ParticipationRate,
		ShiftedKWh:        res.ShiftedKWh,
		ApplianceKWh:      res.ApplianceKWh,
		Costs:             res.Costs,
	}
}

func (r LogRecord) hasAppliance(name string) bool {
	for _, a := range r.Appliances {
		if a == name {
			return true
		}
	}
	return false
}

// LogQuery defines filters for retrieving records. Zero fields match
// everything.
type LogQuery struct {
	Start     time.Time
	End       time.Time
	Appliance string
	SweepID   string
	// Kind restricts results to KindEvaluation or KindSolve.
	Kind string
}

// Match reports whether r satisfies every filter of q.
func (q LogQuery) Match(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.SweepID != "" && r.SweepID != q.SweepID {
		return false
	}
	if q.Appliance != "" && !r.hasAppliance(q.Appliance) {
		return false
	}
	return true
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, LogRecord) error              { return nil }
func (NopStore) Query(context.Context, LogQuery) ([]LogRecord, error) { return nil, nil }
func (NopStore) Close() error                                         { return nil }

// Config selects and configures a store backend.
type Config struct {
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills rotation defaults.
func (c *Config) SetDefaults() {
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 3
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 28
	}
}

// Validate checks the backend name and path.
func (c Config) Validate() error {
	switch c.Backend {
	case "", "none":
		return nil
	case "jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("evaluation log %s: path required", c.Backend)
		}
		return nil
	}
	return fmt.Errorf("unknown evaluation log backend %q", c.Backend)
}

// NewStore opens the configured backend. An empty backend yields a NopStore.
func NewStore(c Config) (LogStore, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Backend {
	case "jsonl":
		c.SetDefaults()
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(c.Path)
	}
	return NopStore{}, nil
}
