package metrics

import "github.com/kilianp07/drflex/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr, when set, exposes /metrics while a command runs.
	PrometheusAddr string `json:"prometheus_addr"`
	// APIToken, when set, is required as a bearer token by the evaluation
	// log endpoint served next to /metrics.
	APIToken string `json:"api_token"`
}
