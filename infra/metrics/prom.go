package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/drflex/core/metrics"
)

// PromSink exposes evaluation, solver and sweep metrics to Prometheus.
type PromSink struct {
	evaluations   *prometheus.CounterVec
	evalDuration  prometheus.Histogram
	shifted       *prometheus.GaugeVec
	participation *prometheus.GaugeVec
	netValue      prometheus.Gauge
	iterations    *prometheus.HistogramVec
	nonConverged  prometheus.Counter
	compensation  prometheus.Gauge
	sweepProgress prometheus.Gauge
	sweepFailed   prometheus.Counter
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// register adds c to reg, reusing an already registered collector of the
// same description.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.evaluations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drflex_evaluations_total",
		Help: "Scenario evaluations run",
	}, []string{"method"})); err != nil {
		return nil, err
	}
	if s.evalDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "drflex_evaluation_duration_seconds",
		Help:    "Wall time of one scenario evaluation",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	})); err != nil {
		return nil, err
	}
	if s.shifted, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "drflex_shifted_energy_kwh",
		Help: "Shifted energy of the last evaluation per appliance",
	}, []string{"appliance"})); err != nil {
		return nil, err
	}
	if s.participation, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "drflex_participation_rate",
		Help: "Participation rate of the last evaluation per appliance",
	}, []string{"appliance"})); err != nil {
		return nil, err
	}
	if s.netValue, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "drflex_net_value_eur",
		Help: "Net value of the last evaluation",
	})); err != nil {
		return nil, err
	}
	if s.iterations, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "drflex_solver_iterations",
		Help:    "Iterations used by the equilibrium solver",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.nonConverged, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drflex_solver_nonconverged_total",
		Help: "Equilibrium searches that hit the iteration cap",
	})); err != nil {
		return nil, err
	}
	if s.compensation, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "drflex_solver_compensation_pct",
		Help: "Compensation found by the last equilibrium search",
	})); err != nil {
		return nil, err
	}
	if s.sweepProgress, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "drflex_sweep_progress_ratio",
		Help: "Share of combinations finished in the running sweep",
	})); err != nil {
		return nil, err
	}
	if s.sweepFailed, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drflex_sweep_failed_total",
		Help: "Sweep combinations that failed",
	})); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordEvaluation updates the evaluation metrics.
func (s *PromSink) RecordEvaluation(ev coremetrics.EvaluationEvent) error {
	s.evaluations.WithLabelValues(ev.Method).Inc()
	s.evalDuration.Observe(ev.Duration.Seconds())
	for a, kwh := range ev.Result.ApplianceKWh {
		s.shifted.WithLabelValues(a).Set(kwh)
	}
	for a, p := range ev.Result.Participation {
		s.participation.WithLabelValues(a).Set(p.Rate)
	}
	s.netValue.Set(ev.Result.Costs.NetValue)
	return nil
}

// RecordSolve observes the iteration count and the compensation found.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.iterations.WithLabelValues(ev.Status).Observe(float64(ev.Iterations))
	if ev.Status != "converged" {
		s.nonConverged.Inc()
	}
	s.compensation.Set(ev.CompensationPct)
	return nil
}

// RecordSweepProgress sets the progress ratio and counts failures.
func (s *PromSink) RecordSweepProgress(_ string, done, total int, failed bool) error {
	if total > 0 {
		s.sweepProgress.Set(float64(done) / float64(total))
	}
	if failed {
		s.sweepFailed.Inc()
	}
	return nil
}

// RecordSweep marks the sweep complete.
func (s *PromSink) RecordSweep(ev coremetrics.SweepEvent) error {
	if ev.Combinations > 0 {
		s.sweepProgress.Set(1)
	}
	return nil
}
