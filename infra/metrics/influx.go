package metrics

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/drflex/core/metrics"
	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/infra/logger"
)

// InfluxConf configures the InfluxDB sink.
type InfluxConf struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
	// SeriesPoints also writes one point per non-zero shifted or rebound
	// timestamp.
	SeriesPoints bool `json:"series_points"`
}

// InfluxSink writes evaluation outcomes to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	series   bool
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(c InfluxConf) *InfluxSink {
	base := strings.TrimSuffix(c.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, c.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(c.Org, c.Bucket),
		series:   c.SeriesPoints,
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails, so a missing database never blocks a
// run.
func NewInfluxSinkWithFallback(c InfluxConf) coremetrics.MetricsSink {
	sink := NewInfluxSink(c)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordEvaluation writes the evaluation summary and, when enabled, the
// shifted and rebound power points.
func (s *InfluxSink) RecordEvaluation(ev coremetrics.EvaluationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r := ev.Result
	p := write.NewPointWithMeasurement("dr_evaluation").
		AddTag("evaluation_id", ev.EvaluationID).
		AddTag("method", ev.Method).
		AddTag("component", "scenario")
	if ev.SweepID != "" {
		p = p.AddTag("sweep_id", ev.SweepID)
	}
	p = p.AddField("duration_h", round3(r.Event.DurationH())).
		AddField("incentive_pct", round3(r.Event.IncentivePct)).
		AddField("participation_rate", round3(r.ParticipationRate)).
		AddField("shifted_kwh", round3(r.ShiftedKWh)).
		AddField("market_savings", round3(r.Costs.MarketSavings)).
		AddField("incentive_cost", round3(r.Costs.IncentiveCost)).
		AddField("balancing_savings", round3(r.Costs.BalancingSavings)).
		AddField("net_value", round3(r.Costs.NetValue)).
		SetTime(ev.Time)
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		return err
	}
	if !s.series {
		return nil
	}
	points := append(powerPoints(ev.EvaluationID, "shifted", r.Unit, r.Shifted), powerPoints(ev.EvaluationID, "rebound", r.Unit, r.Rebound)...)
	if len(points) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

func powerPoints(id, kind string, unit model.PowerUnit, byAppliance map[string]model.TimeSeries) []*write.Point {
	names := make([]string, 0, len(byAppliance))
	for a := range byAppliance {
		names = append(names, a)
	}
	sort.Strings(names)
	var out []*write.Point
	for _, a := range names {
		ts := byAppliance[a]
		for i, v := range ts.Values {
			if v == 0 {
				continue
			}
			out = append(out, write.NewPointWithMeasurement("dr_power").
				AddTag("evaluation_id", id).
				AddTag("appliance", a).
				AddTag("kind", kind).
				AddField("power_kw", round3(v*unit.KWFactor())).
				SetTime(ts.Times[i]))
		}
	}
	return out
}

// RecordSolve writes an equilibrium search summary.
func (s *InfluxSink) RecordSolve(ev coremetrics.SolveEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dr_solve").
		AddTag("solve_id", ev.SolveID).
		AddTag("status", ev.Status).
		AddTag("component", "equilibrium").
		AddField("compensation_pct", round3(ev.CompensationPct)).
		AddField("iterations", ev.Iterations).
		AddField("net_value", round3(ev.NetValue)).
		AddField("duration_ms", round3(float64(ev.Duration)/float64(time.Millisecond))).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSweep writes a sweep summary.
func (s *InfluxSink) RecordSweep(ev coremetrics.SweepEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dr_sweep").
		AddTag("sweep_id", ev.SweepID).
		AddTag("component", "scenario").
		AddField("combinations", ev.Combinations).
		AddField("failed", ev.Failed).
		AddField("duration_ms", round3(float64(ev.Duration)/float64(time.Millisecond))).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
