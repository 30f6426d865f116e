package metrics

import "errors"

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordEvaluation forwards the event to all sinks. Every sink is tried; the
// returned error joins the individual failures.
func (m *MultiSink) RecordEvaluation(ev EvaluationEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordEvaluation(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordSolve forwards solve events to sinks implementing SolveRecorder.
func (m *MultiSink) RecordSolve(ev SolveEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(SolveRecorder); ok {
			if err := rec.RecordSolve(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordSweep forwards sweep summaries to sinks implementing SweepRecorder.
func (m *MultiSink) RecordSweep(ev SweepEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(SweepRecorder); ok {
			if err := rec.RecordSweep(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks that hold resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
