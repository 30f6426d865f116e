package scenarios

import (
	"context"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/drflex/core/equilibrium"
	coremetrics "github.com/kilianp07/drflex/core/metrics"
	"github.com/kilianp07/drflex/core/participation"
	"github.com/kilianp07/drflex/core/scenario"
	"github.com/kilianp07/drflex/infra/logger"
	"github.com/kilianp07/drflex/infra/metrics"
	"github.com/kilianp07/drflex/infra/mqtt"
)

// RunScenario evaluates sc, and solves it when requested, checking the
// expectations. Results flow through a Prometheus sink and an MQTT sink
// backed by a mock publisher.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	prom, err := metrics.NewPromSinkWithRegistry(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	pub := mqtt.NewMockPublisher()
	sink := coremetrics.NewMultiSink(prom, mqtt.NewSink(pub, "qa"))

	method := participation.MethodDiscrete
	if sc.Method != "" {
		method = participation.Method(sc.Method)
	}
	orch := scenario.New(
		scenario.WithLogger(logger.NopLogger{}),
		scenario.WithMethod(method),
		scenario.WithMetrics(sink),
	)
	in := sc.Inputs()
	_, res := orch.Run(context.Background(), orch.Prepare(in), sc.Event.ToModel(), sc.Params(), "")
	if len(pub.Topics) != 1 {
		t.Errorf("scenario %s expected one published evaluation, got %d", sc.Name, len(pub.Topics))
	}

	exp := sc.Expected
	check := func(name string, want *float64, got float64) {
		if want != nil && math.Abs(*want-got) > exp.Tolerance {
			t.Errorf("scenario %s expected %s %v, got %v", sc.Name, name, *want, got)
		}
	}
	check("participation_rate", exp.ParticipationRate, res.ParticipationRate)
	check("shifted_kwh", exp.ShiftedKWh, res.ShiftedKWh)
	check("market_savings", exp.MarketSavings, res.Costs.MarketSavings)
	if exp.NetValueSign != nil && sign(res.Costs.NetValue, exp.Tolerance) != *exp.NetValueSign {
		t.Errorf("scenario %s expected net value sign %d, got %v", sc.Name, *exp.NetValueSign, res.Costs.NetValue)
	}

	if !sc.Solve {
		return
	}
	solver, err := equilibrium.NewSolver(equilibrium.DefaultConfig(), orch, equilibrium.WithMetrics(sink))
	if err != nil {
		t.Fatalf("solver: %v", err)
	}
	sol, err := solver.Solve(context.Background(), in, sc.Event.ToModel(), sc.Params())
	if err != nil {
		t.Fatalf("scenario %s solve: %v", sc.Name, err)
	}
	if exp.SolverStatus != "" && string(sol.Status) != exp.SolverStatus {
		t.Errorf("scenario %s expected solver status %s, got %s", sc.Name, exp.SolverStatus, sol.Status)
	}
}

func sign(v, tol float64) int {
	switch {
	case v > tol:
		return 1
	case v < -tol:
		return -1
	}
	return 0
}
