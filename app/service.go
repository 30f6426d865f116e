// Package app wires configuration, providers, sinks and the engine into a
// Service used by the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/drflex/api/evaluations"
	"github.com/kilianp07/drflex/config"
	"github.com/kilianp07/drflex/connectors/wholesalemarket"
	"github.com/kilianp07/drflex/core/equilibrium"
	coremetrics "github.com/kilianp07/drflex/core/metrics"
	"github.com/kilianp07/drflex/core/model"
	coremon "github.com/kilianp07/drflex/core/monitoring"
	"github.com/kilianp07/drflex/core/provider"
	"github.com/kilianp07/drflex/core/scenario"
	"github.com/kilianp07/drflex/core/scenario/logging"
	"github.com/kilianp07/drflex/core/survey"
	"github.com/kilianp07/drflex/infra/dataset"
	"github.com/kilianp07/drflex/infra/logger"
	"github.com/kilianp07/drflex/infra/metrics"
	"github.com/kilianp07/drflex/infra/monitoring"
	"github.com/kilianp07/drflex/internal/eventbus"
)

// Providers groups the external collaborators of an evaluation.
type Providers struct {
	Flexibility provider.FlexibilityProvider
	Load        provider.LoadCurveProvider
	Prices      provider.SpotPriceProvider
	Balancing   provider.BalancingProvider
}

// Service runs evaluations, equilibrium searches and sweeps for one
// configuration.
type Service struct {
	cfg       *config.Config
	providers Providers
	sink      coremetrics.MetricsSink
	store     logging.LogStore
	orch      *scenario.Orchestrator
	solver    *equilibrium.Solver
	log       logger.Logger
}

var newStore = logging.NewStore

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Logger()); err != nil {
		return nil, err
	}
	log := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	providers, err := NewProviders(cfg)
	if err != nil {
		return nil, err
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, err
	}
	store, err := newStore(cfg.Logging.EvalLog)
	if err != nil {
		closeSink(sink, log)
		return nil, fmt.Errorf("evaluation log: %w", err)
	}
	svc, err := NewWithProviders(cfg, providers, sink, store)
	if err != nil {
		closeSink(sink, log)
		if cerr := store.Close(); cerr != nil {
			log.Errorf("close evaluation log: %v", cerr)
		}
		return nil, err
	}
	return svc, nil
}

// NewWithProviders assembles a Service around already built collaborators.
func NewWithProviders(cfg *config.Config, p Providers, sink coremetrics.MetricsSink, store logging.LogStore) (*Service, error) {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	if store == nil {
		store = logging.NopStore{}
	}
	log := logger.New("service")
	orch := scenario.New(
		scenario.WithLogger(logger.New("scenario")),
		scenario.WithMethod(cfg.Scenario.Method),
		scenario.WithMetrics(sink),
		scenario.WithLogStore(store),
	)
	solver, err := equilibrium.NewSolver(cfg.Scenario.Solver, orch,
		equilibrium.WithLogger(logger.New("equilibrium")),
		equilibrium.WithMetrics(sink),
		equilibrium.WithLogStore(store),
	)
	if err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, providers: p, sink: sink, store: store, orch: orch, solver: solver, log: log}, nil
}

// NewProviders builds the file providers and, when configured, swaps the
// spot price provider for the RTE wholesale market client.
func NewProviders(cfg *config.Config) (Providers, error) {
	fp, lp, sp, bp, err := dataset.Providers(cfg.Inputs, cfg.Scenario.DurationBuckets)
	if err != nil {
		return Providers{}, fmt.Errorf("inputs: %w", err)
	}
	p := Providers{Flexibility: fp, Load: lp, Prices: sp, Balancing: bp}
	if cfg.Market.Source == config.MarketSourceRTE {
		p.Prices = wholesalemarket.NewClient(cfg.Market.RTE, wholesalemarket.WithLogger(logger.New("wholesale-market")))
	}
	return p, nil
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.Config { return s.cfg }

// Store returns the evaluation log.
func (s *Service) Store() logging.LogStore { return s.store }

// Window returns the load window an event of durationH hours starting at
// start needs: whole days covering the event and its rebound.
func Window(start time.Time, durationH float64, a model.SimulationAssumptions) (time.Time, time.Time) {
	tail := durationH + a.Payback.DelayH + a.Payback.DurationH
	end := start.Add(time.Duration(math.Ceil(tail*3600)) * time.Second)
	day := 24 * time.Hour
	return start.Truncate(day), end.Truncate(day).Add(day)
}

// Inputs loads survey records, load curves, prices and balancing data for
// [start, end). A survey and a load input must be configured. Load, price
// or balancing providers without data for the window degrade to empty
// inputs, which evaluate to zero results.
func (s *Service) Inputs(ctx context.Context, start, end time.Time) (scenario.Inputs, error) {
	if s.providers.Flexibility == nil {
		return scenario.Inputs{}, errors.New("no survey input configured")
	}
	if s.providers.Load == nil {
		return scenario.Inputs{}, errors.New("no load input configured")
	}
	records, err := s.providers.Flexibility.Records(ctx)
	if err != nil {
		return scenario.Inputs{}, fmt.Errorf("survey: %w", err)
	}
	load, err := s.providers.Load.LoadCurves(ctx, survey.Appliances(records), start, end)
	if err != nil && !errors.Is(err, provider.ErrNoData) {
		return scenario.Inputs{}, fmt.Errorf("load curves: %w", err)
	}
	if errors.Is(err, provider.ErrNoData) {
		s.log.Warnf("no load curves for the surveyed appliances between %s and %s, results will be zero", start.Format(time.RFC3339), end.Format(time.RFC3339))
		load = model.LoadTable{}
	}
	in := scenario.Inputs{Records: records, Load: load}
	if s.providers.Prices != nil {
		in.Prices, err = s.providers.Prices.SpotPrices(ctx, start, end)
		if err != nil && !errors.Is(err, provider.ErrNoData) {
			return scenario.Inputs{}, fmt.Errorf("spot prices: %w", err)
		}
		if errors.Is(err, provider.ErrNoData) {
			s.log.Warnf("no spot prices between %s and %s, market costs will be zero", start.Format(time.RFC3339), end.Format(time.RFC3339))
		}
	}
	if s.providers.Balancing != nil {
		in.Balancing, err = s.providers.Balancing.Balancing(ctx, start, end)
		if err != nil && !errors.Is(err, provider.ErrNoData) {
			return scenario.Inputs{}, fmt.Errorf("balancing: %w", err)
		}
		if errors.Is(err, provider.ErrNoData) {
			s.log.Warnf("no balancing data between %s and %s, balancing savings will be zero", start.Format(time.RFC3339), end.Format(time.RFC3339))
		}
	}
	s.log.Infof("loaded %d survey records, %d load points, %d prices, %d balancing points",
		len(in.Records), len(in.Load.Times), len(in.Prices.Times), len(in.Balancing))
	return in, nil
}

// Evaluate runs the configured event once.
func (s *Service) Evaluate(ctx context.Context) (string, model.SimulationResult, error) {
	ev := s.cfg.Scenario.Event
	if err := ev.Validate(); err != nil {
		return "", model.SimulationResult{}, fmt.Errorf("scenario.event: %w", err)
	}
	from, to := Window(ev.Start, ev.DurationH(), s.cfg.Scenario.Assumptions)
	in, err := s.Inputs(ctx, from, to)
	if err != nil {
		return "", model.SimulationResult{}, err
	}
	id, res := s.orch.Run(ctx, s.orch.Prepare(in), ev, s.cfg.Scenario.Params(), "")
	return id, res, nil
}

// Solve searches the equilibrium compensation for the configured event
// window. The configured incentive is ignored.
func (s *Service) Solve(ctx context.Context) (equilibrium.Solution, error) {
	ev := s.cfg.Scenario.Event
	if err := ev.Validate(); err != nil {
		return equilibrium.Solution{}, fmt.Errorf("scenario.event: %w", err)
	}
	from, to := Window(ev.Start, ev.DurationH(), s.cfg.Scenario.Assumptions)
	in, err := s.Inputs(ctx, from, to)
	if err != nil {
		return equilibrium.Solution{}, err
	}
	return s.solver.Solve(ctx, in, ev, s.cfg.Scenario.Params())
}

// Sweep evaluates the configured grid. Progress is published on bus when it
// is not nil and forwarded to sinks that record sweep progress.
func (s *Service) Sweep(ctx context.Context, bus *eventbus.TypedBus[scenario.SweepEvent]) (scenario.SweepResult, error) {
	sc := s.cfg.Scenario.Sweep
	if len(sc.DurationsH) == 0 || len(sc.IncentivesPct) == 0 {
		return scenario.SweepResult{}, errors.New("scenario.sweep: durations_h and incentives_pct are required")
	}
	if sc.Start.IsZero() {
		return scenario.SweepResult{}, errors.New("scenario.sweep: start is required")
	}
	maxDur := 0.0
	for _, d := range sc.DurationsH {
		maxDur = math.Max(maxDur, d)
	}
	from, to := Window(sc.Start, maxDur, s.cfg.Scenario.Assumptions)
	in, err := s.Inputs(ctx, from, to)
	if err != nil {
		return scenario.SweepResult{}, err
	}

	if bus == nil {
		bus = eventbus.NewTyped[scenario.SweepEvent]()
		defer bus.Close()
	}
	if rec, ok := s.sink.(coremetrics.ProgressRecorder); ok {
		cctx, cancel := context.WithCancel(ctx)
		done := metrics.StartSweepCollector(cctx, bus, rec)
		defer func() {
			cancel()
			<-done
		}()
	}
	return s.orch.Sweep(ctx, in, sc.DurationsH, sc.IncentivesPct, scenario.SweepOptions{
		Start:   sc.Start,
		Params:  s.cfg.Scenario.Params(),
		Workers: sc.Workers,
		Bus:     bus,
	})
}

// ServeMetrics exposes /metrics and the evaluation log endpoint on the
// configured address until ctx ends. It is a no-op without an address.
func (s *Service) ServeMetrics(ctx context.Context) {
	addr := s.cfg.Metrics.PrometheusAddr
	if addr == "" {
		return
	}
	go func() {
		route := metrics.Route{Pattern: evaluations.Path, Handler: evaluations.NewLogHandler(s.store, s.cfg.Metrics.APIToken)}
		if err := metrics.StartPromServer(ctx, addr, route); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}()
}

// Close flushes monitoring and releases the sink and the evaluation log.
func (s *Service) Close() error {
	coremon.Flush(2 * time.Second)
	var errs []error
	if c, ok := s.sink.(coremetrics.Closer); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}

func closeSink(sink coremetrics.MetricsSink, log logger.Logger) {
	if c, ok := sink.(coremetrics.Closer); ok {
		if err := c.Close(); err != nil {
			log.Errorf("close metrics sink: %v", err)
		}
	}
}
