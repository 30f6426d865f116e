//go:build integration

package metrics

import (
	"context"
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	coremetrics "github.com/kilianp07/drflex/core/metrics"
	"github.com/kilianp07/drflex/internal/testutil"
)

func TestInfluxSinkAgainstContainer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	db, cleanup, err := testutil.StartInfluxDB(ctx)
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	defer cleanup()

	sink := NewInfluxSinkWithFallback(InfluxConf{URL: db.URL, Token: db.Token, Org: db.Org, Bucket: db.Bucket})
	influx, ok := sink.(*InfluxSink)
	if !ok {
		t.Fatalf("expected live influx sink, got %T", sink)
	}
	defer influx.Close()

	now := time.Now().UTC()
	if err := influx.RecordEvaluation(coremetrics.EvaluationEvent{EvaluationID: "it", Method: "lognormal", Result: sampleResult(now), Time: now}); err != nil {
		t.Fatalf("record: %v", err)
	}

	client := influxdb2.NewClient(db.URL, db.Token)
	defer client.Close()
	res, err := client.QueryAPI(db.Org).Query(ctx, `from(bucket:"`+db.Bucket+`") |> range(start: -1h) |> filter(fn: (r) => r._measurement == "dr_evaluation" and r._field == "net_value")`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	found := false
	for res.Next() {
		if v, ok := res.Record().Value().(float64); ok && v == 1.1 {
			found = true
		}
	}
	if res.Err() != nil {
		t.Fatalf("query result: %v", res.Err())
	}
	if !found {
		t.Fatalf("evaluation point not found")
	}
}
