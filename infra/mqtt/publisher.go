package mqtt

import (
	"encoding/json"
	"sync"

	coremetrics "github.com/kilianp07/drflex/core/metrics"
)

// Publisher sends raw payloads to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

type disconnecter interface {
	Disconnect()
}

// Sink publishes evaluation, solve and sweep summaries as JSON.
//
// Topics:
//
//	<prefix>/evaluations/<evaluation id>
//	<prefix>/solves/<solve id>
//	<prefix>/sweeps/<sweep id>
//	<prefix>/sweeps/<sweep id>/progress
type Sink struct {
	pub    Publisher
	prefix string
}

// NewSink wraps pub. An empty prefix falls back to DefaultTopicPrefix.
func NewSink(pub Publisher, prefix string) *Sink {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &Sink{pub: pub, prefix: prefix}
}

type evaluationMessage struct {
	EvaluationID      string             `json:"evaluation_id"`
	SweepID           string             `json:"sweep_id,omitempty"`
	Method            string             `json:"method"`
	EventStart        int64              `json:"event_start"`
	EventEnd          int64              `json:"event_end"`
	IncentivePct      float64            `json:"incentive_pct"`
	ParticipationRate float64            `json:"participation_rate"`
	ShiftedKWh        float64            `json:"shifted_kwh"`
	ApplianceKWh      map[string]float64 `json:"appliance_kwh"`
	NetValue          float64            `json:"net_value"`
	DurationMS        int64              `json:"duration_ms"`
	Timestamp         int64              `json:"timestamp"`
}

// RecordEvaluation publishes the evaluation summary.
func (s *Sink) RecordEvaluation(ev coremetrics.EvaluationEvent) error {
	r := ev.Result
	return s.publish(s.prefix+"/evaluations/"+ev.EvaluationID, evaluationMessage{
		EvaluationID:      ev.EvaluationID,
		SweepID:           ev.SweepID,
		Method:            ev.Method,
		EventStart:        r.Event.Start.UnixMilli(),
		EventEnd:          r.Event.End.UnixMilli(),
		IncentivePct:      r.Event.IncentivePct,
		ParticipationRate: r.ParticipationRate,
		ShiftedKWh:        r.ShiftedKWh,
		ApplianceKWh:      r.ApplianceKWh,
		NetValue:          r.Costs.NetValue,
		DurationMS:        ev.Duration.Milliseconds(),
		Timestamp:         ev.Time.UnixMilli(),
	})
}

// RecordSolve publishes the equilibrium summary.
func (s *Sink) RecordSolve(ev coremetrics.SolveEvent) error {
	return s.publish(s.prefix+"/solves/"+ev.SolveID, struct {
		SolveID         string  `json:"solve_id"`
		Status          string  `json:"status"`
		CompensationPct float64 `json:"compensation_pct"`
		Iterations      int     `json:"iterations"`
		NetValue        float64 `json:"net_value"`
		DurationMS      int64   `json:"duration_ms"`
		Timestamp       int64   `json:"timestamp"`
	}{ev.SolveID, ev.Status, ev.CompensationPct, ev.Iterations, ev.NetValue, ev.Duration.Milliseconds(), ev.Time.UnixMilli()})
}

// RecordSweep publishes the sweep summary.
func (s *Sink) RecordSweep(ev coremetrics.SweepEvent) error {
	return s.publish(s.prefix+"/sweeps/"+ev.SweepID, struct {
		SweepID      string `json:"sweep_id"`
		Combinations int    `json:"combinations"`
		Failed       int    `json:"failed"`
		DurationMS   int64  `json:"duration_ms"`
		Timestamp    int64  `json:"timestamp"`
	}{ev.SweepID, ev.Combinations, ev.Failed, ev.Duration.Milliseconds(), ev.Time.UnixMilli()})
}

// RecordSweepProgress publishes sweep progress.
func (s *Sink) RecordSweepProgress(sweepID string, done, total int, failed bool) error {
	return s.publish(s.prefix+"/sweeps/"+sweepID+"/progress", struct {
		Done   int  `json:"done"`
		Total  int  `json:"total"`
		Failed bool `json:"failed"`
	}{done, total, failed})
}

// Close disconnects the underlying client if it supports it.
func (s *Sink) Close() error {
	if d, ok := s.pub.(disconnecter); ok {
		d.Disconnect()
	}
	return nil
}

func (s *Sink) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.pub.Publish(topic, payload)
}

// MockPublisher records published payloads. It is used in tests.
type MockPublisher struct {
	mu       sync.Mutex
	Messages map[string][]byte
	Topics   []string
	Err      error
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Messages: make(map[string][]byte)}
}

// Publish records the message or returns the configured error.
func (m *MockPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Messages[topic] = payload
	m.Topics = append(m.Topics, topic)
	return nil
}
