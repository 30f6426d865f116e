// Package equilibrium searches the compensation percentage at which the
// incentive paid per shifted kWh matches the market value captured per
// shifted kWh.
package equilibrium

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/drflex/core/logger"
	"github.com/kilianp07/drflex/core/metrics"
	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/core/scenario"
	"github.com/kilianp07/drflex/core/scenario/logging"
)

// Status is the state of the search.
type Status string

const (
	StatusIterating Status = "iterating"
	StatusConverged Status = "converged"
	// StatusExhausted means the iteration cap was hit. The solution is still
	// usable but should be treated with care.
	StatusExhausted Status = "exhausted"
)

// Step records one iteration.
type Step struct {
	Iteration    int     `json:"iteration"`
	GuessPct     float64 `json:"guess_pct"`
	ValuePerKWh  float64 `json:"value_per_kwh"`
	CandidatePct float64 `json:"candidate_pct"`
	NextPct      float64 `json:"next_pct"`
	ShiftedKWh   float64 `json:"shifted_kwh"`
}

// Solution is the outcome of Solve. Result is the evaluation at
// CompensationPct.
type Solution struct {
	ID              string                 `json:"id"`
	Status          Status                 `json:"status"`
	CompensationPct float64                `json:"compensation_pct"`
	Iterations      int                    `json:"iterations"`
	History         []Step                 `json:"history"`
	Result          model.SimulationResult `json:"result"`
}

// Converged reports whether the search met the threshold.
func (s Solution) Converged() bool { return s.Status == StatusConverged }

// Solver runs the search over a scenario orchestrator.
type Solver struct {
	cfg   Config
	orch  *scenario.Orchestrator
	log   logger.Logger
	sink  metrics.MetricsSink
	store logging.LogStore
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(s *Solver) { s.log = logger.OrNop(l) } }

// WithMetrics sets the sink solve summaries are reported to when it
// implements metrics.SolveRecorder.
func WithMetrics(m metrics.MetricsSink) Option {
	return func(s *Solver) {
		if m != nil {
			s.sink = m
		}
	}
}

// WithLogStore sets the evaluation log.
func WithLogStore(st logging.LogStore) Option {
	return func(s *Solver) {
		if st != nil {
			s.store = st
		}
	}
}

// NewSolver validates cfg after applying defaults.
func NewSolver(cfg Config, orch *scenario.Orchestrator, opts ...Option) (*Solver, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if orch == nil {
		orch = scenario.New()
	}
	s := &Solver{cfg: cfg, orch: orch, log: logger.Nop{}, sink: metrics.NopSink{}, store: logging.NopStore{}}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Config returns the effective configuration.
func (s *Solver) Config() Config { return s.cfg }

// Solve iterates from 0 % until the guess moves less than the threshold or
// the iteration cap is reached. The incentive of ev is ignored. Exhaustion
// is reported through Status, never as an error; the only error is an
// invalid event window.
func (s *Solver) Solve(ctx context.Context, in scenario.Inputs, ev model.EventParameters, p scenario.Params) (Solution, error) {
	if err := ev.Validate(); err != nil {
		return Solution{}, fmt.Errorf("solve: %w", err)
	}
	started := time.Now()
	pr := s.orch.Prepare(in)
	sol := Solution{ID: uuid.NewString(), Status: StatusIterating}

	guess := 0.0
	for it := 1; it <= s.cfg.MaxIterations; it++ {
		ev.IncentivePct = guess
		res := s.orch.EvaluatePrepared(pr, ev, p)
		value := s.valuePerKWh(res, p.Costs)
		candidate := s.candidate(value, p.Costs.HouseholdPricePerKWh)
		next := s.cfg.Damping*guess + (1-s.cfg.Damping)*candidate

		sol.History = append(sol.History, Step{
			Iteration:    it,
			GuessPct:     guess,
			ValuePerKWh:  value,
			CandidatePct: candidate,
			NextPct:      next,
			ShiftedKWh:   res.ShiftedKWh,
		})
		sol.Iterations = it
		sol.CompensationPct = guess
		sol.Result = res
		s.log.Debugw("equilibrium iteration", map[string]any{
			"iteration": it, "guess_pct": guess, "candidate_pct": candidate, "value_per_kwh": value,
		})

		if math.Abs(next-guess) < s.cfg.Threshold {
			sol.Status = StatusConverged
			break
		}
		guess = next
	}
	if sol.Status != StatusConverged {
		sol.Status = StatusExhausted
		s.log.Warnf("equilibrium: no convergence after %d iterations, last guess %.3f %%", sol.Iterations, sol.CompensationPct)
	}
	s.report(ctx, sol, time.Since(started))
	return sol, nil
}

// valuePerKWh is the captured value per shifted kWh after the aggregator
// margin. No shifted energy means no value.
func (s *Solver) valuePerKWh(res model.SimulationResult, c model.CostAssumptions) float64 {
	if res.ShiftedKWh <= 0 {
		return 0
	}
	value := res.Costs.MarketSavings
	if s.cfg.IncludeBalancing {
		value += res.Costs.BalancingSavings
	}
	return value * (1 - c.AggregatorMargin) / res.ShiftedKWh
}

func (s *Solver) candidate(valuePerKWh, householdPrice float64) float64 {
	if householdPrice <= 0 {
		return 0
	}
	c := valuePerKWh / householdPrice * 100
	if s.cfg.StepPct > 0 {
		c = math.Round(c/s.cfg.StepPct) * s.cfg.StepPct
	}
	return math.Min(math.Max(c, 0), s.cfg.MaxPct)
}

func (s *Solver) report(ctx context.Context, sol Solution, took time.Duration) {
	now := time.Now()
	if rec, ok := s.sink.(metrics.SolveRecorder); ok {
		if err := rec.RecordSolve(metrics.SolveEvent{
			SolveID:         sol.ID,
			Status:          string(sol.Status),
			CompensationPct: sol.CompensationPct,
			Iterations:      sol.Iterations,
			NetValue:        sol.Result.Costs.NetValue,
			Duration:        took,
			Time:            now,
		}); err != nil {
			s.log.Warnf("equilibrium: record solve %s: %v", sol.ID, err)
		}
	}
	rec := logging.FromResult(sol.ID, "", string(s.orch.Method()), sol.Result, now)
	rec.Kind = logging.KindSolve
	rec.Status = string(sol.Status)
	rec.Iterations = sol.Iterations
	if err := s.store.Append(ctx, rec); err != nil {
		s.log.Warnf("equilibrium: append log %s: %v", sol.ID, err)
	}
}
