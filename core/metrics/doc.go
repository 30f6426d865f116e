// Package metrics defines the sinks scenario evaluations, equilibrium
// searches and sweeps are reported to. Concrete sinks live in infra/metrics
// and register themselves with the factory; several configured sinks are
// wrapped in a MultiSink.
package metrics
