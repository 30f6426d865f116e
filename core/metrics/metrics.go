package metrics

import (
	"time"

	"github.com/kilianp07/drflex/core/model"
)

// EvaluationEvent is emitted once per scenario evaluation.
type EvaluationEvent struct {
	EvaluationID string
	SweepID      string
	Method       string
	Result       model.SimulationResult
	Duration     time.Duration
	Time         time.Time
}

// MetricsSink records scenario evaluations for observability purposes.
type MetricsSink interface {
	RecordEvaluation(ev EvaluationEvent) error
}

// SolveEvent summarises an equilibrium search.
type SolveEvent struct {
	SolveID         string
	Status          string
	CompensationPct float64
	Iterations      int
	NetValue        float64
	Duration        time.Duration
	Time            time.Time
}

// SolveRecorder records equilibrium searches.
type SolveRecorder interface {
	RecordSolve(ev SolveEvent) error
}

// SweepEvent summarises a finished parameter sweep.
type SweepEvent struct {
	SweepID      string
	Combinations int
	Failed       int
	Duration     time.Duration
	Time         time.Time
}

// SweepRecorder records sweep summaries.
type SweepRecorder interface {
	RecordSweep(ev SweepEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordEvaluation(EvaluationEvent) error { return nil }
func (NopSink) RecordSolve(SolveEvent) error           { return nil }
func (NopSink) RecordSweep(SweepEvent) error           { return nil }

// Closer is implemented by sinks holding connections.
type Closer interface {
	Close() error
}

// ProgressRecorder receives sweep progress while a sweep runs.
type ProgressRecorder interface {
	RecordSweepProgress(sweepID string, done, total int, failed bool) error
}

func (NopSink) RecordSweepProgress(string, int, int, bool) error { return nil }
