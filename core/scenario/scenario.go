// Package scenario composes participation, load shifting and costing into a
// single demand-response evaluation, and sweeps evaluations over a grid of
// event durations and offered incentives.
package scenario

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/drflex/core/cost"
	"github.com/kilianp07/drflex/core/logger"
	"github.com/kilianp07/drflex/core/metrics"
	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/core/participation"
	"github.com/kilianp07/drflex/core/scenario/logging"
	"github.com/kilianp07/drflex/core/series"
	"github.com/kilianp07/drflex/core/shift"
	"github.com/kilianp07/drflex/core/survey"
)

// Inputs are the materialised tables an evaluation runs on. They are never
// mutated.
type Inputs struct {
	Records   []model.FlexibilityRecord
	Load      model.LoadTable
	Prices    model.PriceSeries
	Balancing model.BalancingSeries
}

// Params carries the assumptions of one evaluation.
type Params struct {
	Assumptions model.SimulationAssumptions `json:"assumptions" yaml:"assumptions"`
	Costs       model.CostAssumptions       `json:"costs" yaml:"costs"`
}

// Validate checks both assumption sets.
func (p Params) Validate() error {
	if err := p.Assumptions.Validate(); err != nil {
		return err
	}
	return p.Costs.Validate()
}

// Prepared binds inputs to a participation model so repeated evaluations
// over the same inputs fit distributions only once.
type Prepared struct {
	in         Inputs
	pm         *participation.Model
	appliances []string
}

// Appliances returns the appliances present in both the survey and the
// load table.
func (p *Prepared) Appliances() []string { return p.appliances }

// Inputs returns the bound inputs.
func (p *Prepared) Inputs() Inputs { return p.in }

// Orchestrator evaluates scenarios. It holds no per-evaluation state and is
// safe for concurrent use.
type Orchestrator struct {
	log    logger.Logger
	sim    *shift.Simulator
	method participation.Method
	sink   metrics.MetricsSink
	store  logging.LogStore
	now    func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(o *Orchestrator) { o.log = logger.OrNop(l) } }

// WithMethod selects the participation method. Discrete is the default.
func WithMethod(m participation.Method) Option { return func(o *Orchestrator) { o.method = m } }

// WithMetrics sets the sink evaluations are reported to.
func WithMetrics(s metrics.MetricsSink) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.sink = s
		}
	}
}

// WithLogStore sets the evaluation log.
func WithLogStore(s logging.LogStore) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.store = s
		}
	}
}

// New returns an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		log:    logger.Nop{},
		method: participation.MethodDiscrete,
		sink:   metrics.NopSink{},
		store:  logging.NopStore{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.sim = shift.NewSimulator(o.log)
	return o
}

// Method returns the participation method in use.
func (o *Orchestrator) Method() participation.Method { return o.method }

// Prepare matches survey appliances against load columns and builds the
// participation model. Appliances present on one side only are dropped.
func (o *Orchestrator) Prepare(in Inputs) *Prepared {
	var matched []string
	for _, a := range survey.Appliances(in.Records) {
		col, ok := in.Load.Series[a]
		if !ok {
			continue
		}
		if len(col) != len(in.Load.Times) {
			o.log.Warnf("scenario: load column %s has %d values for %d timestamps, skipping", a, len(col), len(in.Load.Times))
			continue
		}
		matched = append(matched, a)
	}
	sort.Strings(matched)
	if len(matched) == 0 && !in.Load.Empty() {
		o.log.Warnf("scenario: no appliance present in both survey and load table")
	}
	return &Prepared{in: in, pm: participation.New(in.Records, o.method), appliances: matched}
}

// Evaluate runs one scenario. It never fails: degenerate inputs give zero
// or partial results.
func (o *Orchestrator) Evaluate(in Inputs, ev model.EventParameters, p Params) model.SimulationResult {
	return o.EvaluatePrepared(o.Prepare(in), ev, p)
}

// EvaluatePrepared runs one scenario over prepared inputs.
func (o *Orchestrator) EvaluatePrepared(pr *Prepared, ev model.EventParameters, p Params) model.SimulationResult {
	load := pr.in.Load
	res := model.EmptyResult(ev, load.Unit)
	if load.Empty() {
		o.log.Debugf("scenario: empty load table, returning empty result")
		return res
	}

	durationH := ev.DurationH()
	rates := make(map[string]float64, len(pr.appliances))
	var base, weighted float64
	for _, a := range pr.appliances {
		part := pr.pm.Participation(a, durationH, ev.IncentivePct)
		res.Participation[a] = part
		rates[a] = part.Rate
		base += float64(part.BasePopulation)
		weighted += part.Rate * float64(part.BasePopulation)
	}
	if base > 0 {
		res.ParticipationRate = weighted / base
	}

	out := o.sim.Simulate(load, rates, ev, p.Assumptions)
	res.Shifted = out.Shifted
	res.Rebound = out.Rebound
	res.ApplianceKWh = out.EnergyKWh
	res.ShiftedKWh = out.TotalKWh()

	n := len(load.Times)
	baseline := make([]float64, n)
	shifted := make([]float64, n)
	for _, a := range pr.appliances {
		col, _ := load.Appliance(a)
		floats.Add(baseline, col.Values)
		if s, ok := out.Shifted[a]; ok && len(s.Values) == n {
			floats.Add(shifted, s.Values)
		}
	}
	scenario := make([]float64, n)
	floats.SubTo(scenario, baseline, shifted)
	for _, a := range pr.appliances {
		if dropped := series.AddAt(scenario, load.Times, out.Rebound[a]); dropped > 0 {
			o.log.Debugf("scenario: %d rebound points of %s fall outside the load index", dropped, a)
		}
	}
	res.Baseline = model.TimeSeries{Times: load.Times, Values: baseline}
	res.Scenario = model.TimeSeries{Times: load.Times, Values: scenario}

	res.Costs = o.costs(pr.in, res, shifted, out.StepH, ev, p.Costs)
	return res
}

func (o *Orchestrator) costs(in Inputs, res model.SimulationResult, shifted []float64, stepH float64, ev model.EventParameters, c model.CostAssumptions) model.CostBreakdown {
	var b model.CostBreakdown
	b.BaselineMarketCost = cost.MarketCost(res.Baseline, res.Unit, in.Prices)
	b.ScenarioMarketCost = cost.MarketCost(res.Scenario, res.Unit, in.Prices)
	b.MarketSavings = b.BaselineMarketCost - b.ScenarioMarketCost
	b.IncentiveCost = cost.IncentiveCost(res.ShiftedKWh, c.PayoutRatePerKWh(ev.IncentivePct))

	displaceable := make([]float64, len(shifted))
	floats.ScaleTo(displaceable, res.Unit.MWFactor(), shifted)
	b.BalancingSavings = cost.BalancingSavings(in.Balancing,
		model.TimeSeries{Times: res.Baseline.Times, Values: displaceable},
		cost.BalancingParams{
			IntervalH:            stepH,
			ActivationCostPerMWh: c.ActivationCostPerMWh,
			AvailabilityFactor:   c.AvailabilityFactor,
		})
	b.NetValue = b.MarketSavings + b.BalancingSavings - b.IncentiveCost
	return b
}

// Run evaluates a scenario and reports it to the metrics sink and the
// evaluation log. Reporting failures are logged, not returned.
func (o *Orchestrator) Run(ctx context.Context, pr *Prepared, ev model.EventParameters, p Params, sweepID string) (string, model.SimulationResult) {
	id := uuid.NewString()
	start := o.now()
	res := evaluate(o, pr, ev, p)
	o.report(ctx, id, sweepID, res, o.now().Sub(start))
	return id, res
}

func (o *Orchestrator) report(ctx context.Context, id, sweepID string, res model.SimulationResult, took time.Duration) {
	now := o.now()
	if err := o.sink.RecordEvaluation(metrics.EvaluationEvent{
		EvaluationID: id,
		SweepID:      sweepID,
		Method:       string(o.method),
		Result:       res,
		Duration:     took,
		Time:         now,
	}); err != nil {
		o.log.Warnf("scenario: record evaluation %s: %v", id, err)
	}
	if err := o.store.Append(ctx, logging.FromResult(id, sweepID, string(o.method), res, now)); err != nil {
		o.log.Warnf("scenario: append evaluation log %s: %v", id, err)
	}
}

// evaluate is swapped in tests.
var evaluate = func(o *Orchestrator, pr *Prepared, ev model.EventParameters, p Params) model.SimulationResult {
	return o.EvaluatePrepared(pr, ev, p)
}
