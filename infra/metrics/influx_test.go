package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/drflex/core/metrics"
	"github.com/kilianp07/drflex/core/model"
)

type lineRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(data)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sampleResult(start time.Time) model.SimulationResult {
	res := model.EmptyResult(model.EventParameters{Start: start, End: start.Add(2 * time.Hour), IncentivePct: 20}, model.KW)
	res.ShiftedKWh = 3
	res.ParticipationRate = 0.25
	res.ApplianceKWh["dishwasher"] = 3
	res.Costs = model.CostBreakdown{MarketSavings: 1.5, IncentiveCost: 0.4, NetValue: 1.1}
	res.Shifted["dishwasher"] = model.TimeSeries{
		Times:  []time.Time{start, start.Add(time.Hour)},
		Values: []float64{2, 0},
	}
	res.Rebound["dishwasher"] = model.TimeSeries{
		Times:  []time.Time{start, start.Add(time.Hour)},
		Values: []float64{0, 1},
	}
	return res
}

func TestInfluxSink_RecordEvaluation(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)

	sink := NewInfluxSink(InfluxConf{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	now := time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC)
	res := sampleResult(now)
	if err := sink.RecordEvaluation(coremetrics.EvaluationEvent{EvaluationID: "e1", Method: "discrete", Result: res, Time: now}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("dr_evaluation").
		AddTag("evaluation_id", "e1").
		AddTag("method", "discrete").
		AddTag("component", "scenario").
		AddField("duration_h", 2.0).
		AddField("incentive_pct", 20.0).
		AddField("participation_rate", 0.25).
		AddField("shifted_kwh", 3.0).
		AddField("market_savings", 1.5).
		AddField("incentive_cost", 0.4).
		AddField("balancing_savings", 0.0).
		AddField("net_value", 1.1).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(rec.bodies) != 1 || rec.bodies[0] != expected {
		t.Errorf("unexpected bodies: %#v", rec.bodies)
	}
}

func TestInfluxSink_SeriesPoints(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)

	sink := NewInfluxSink(InfluxConf{URL: srv.URL, Org: "org", Bucket: "bucket", SeriesPoints: true})
	now := time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC)
	if err := sink.RecordEvaluation(coremetrics.EvaluationEvent{EvaluationID: "e1", Method: "discrete", Result: sampleResult(now), Time: now}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if len(rec.bodies) != 2 {
		t.Fatalf("expected summary and series writes, got %d", len(rec.bodies))
	}
	lines := strings.Split(rec.bodies[1], "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one point per non-zero value, got %#v", lines)
	}
	if !strings.Contains(lines[0], "kind=shifted") || !strings.Contains(lines[1], "kind=rebound") {
		t.Errorf("unexpected series lines: %#v", lines)
	}
}

func TestInfluxSink_RecordSolveAndSweep(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)

	sink := NewInfluxSink(InfluxConf{URL: srv.URL, Org: "org", Bucket: "bucket"})
	now := time.Now()
	if err := sink.RecordSolve(coremetrics.SolveEvent{SolveID: "s1", Status: "converged", CompensationPct: 40, Iterations: 7, NetValue: 2, Duration: 1500 * time.Microsecond, Time: now}); err != nil {
		t.Fatalf("record solve: %v", err)
	}
	if err := sink.RecordSweep(coremetrics.SweepEvent{SweepID: "w1", Combinations: 6, Failed: 1, Duration: time.Second, Time: now}); err != nil {
		t.Fatalf("record sweep: %v", err)
	}
	solve := write.NewPointWithMeasurement("dr_solve").
		AddTag("solve_id", "s1").
		AddTag("status", "converged").
		AddTag("component", "equilibrium").
		AddField("compensation_pct", 40.0).
		AddField("iterations", 7).
		AddField("net_value", 2.0).
		AddField("duration_ms", 1.5).
		SetTime(now)
	sweep := write.NewPointWithMeasurement("dr_sweep").
		AddTag("sweep_id", "w1").
		AddTag("component", "scenario").
		AddField("combinations", 6).
		AddField("failed", 1).
		AddField("duration_ms", 1000.0).
		SetTime(now)
	exp1 := strings.TrimSpace(write.PointToLineProtocol(solve, time.Nanosecond))
	exp2 := strings.TrimSpace(write.PointToLineProtocol(sweep, time.Nanosecond))
	if len(rec.bodies) != 2 || rec.bodies[0] != exp1 || rec.bodies[1] != exp2 {
		t.Errorf("unexpected bodies: %#v", rec.bodies)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConf{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
