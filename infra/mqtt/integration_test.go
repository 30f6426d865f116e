//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremetrics "github.com/kilianp07/drflex/core/metrics"
	"github.com/kilianp07/drflex/internal/testutil"
)

func TestSinkAgainstBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	broker, cleanup, err := testutil.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	defer cleanup()

	received := make(chan []byte, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("listener"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("listener connect: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	if tok := sub.Subscribe("drflex/solves/#", 1, func(_ paho.Client, m paho.Message) {
		received <- m.Payload()
	}); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	cfg := Config{Broker: broker, QoS: 1}
	cfg.SetDefaults()
	cli, err := NewPahoClient(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	sink := NewSink(cli, cfg.TopicPrefix)
	defer sink.Close()

	if err := sink.RecordSolve(coremetrics.SolveEvent{SolveID: "s1", Status: "converged", CompensationPct: 42}); err != nil {
		t.Fatalf("record: %v", err)
	}
	select {
	case payload := <-received:
		var msg struct {
			Status          string  `json:"status"`
			CompensationPct float64 `json:"compensation_pct"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Status != "converged" || msg.CompensationPct != 42 {
			t.Fatalf("unexpected message %+v", msg)
		}
	case <-ctx.Done():
		t.Fatalf("message not received")
	}
}
