package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	coremon "github.com/kilianp07/drflex/core/monitoring"
)

// Config holds Sentry settings. An empty DSN disables reporting.
type Config struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
}

// Validate checks the sample rate.
func (c Config) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("sentry: traces_sample_rate must be in [0,1], got %v", c.TracesSampleRate)
	}
	return nil
}

// comboKeys identify one sweep combination. They vary per event, so they go
// to the "combination" context instead of tags and stay out of grouping.
var comboKeys = map[string]bool{"index": true, "duration_h": true, "incentive_pct": true}

// NewSentryMonitor returns a NopMonitor when no DSN is configured.
func NewSentryMonitor(cfg Config) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
		Tags:             map[string]string{"service": "drflex"},
	}); err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}
	return &sentryMonitor{}, nil
}

type sentryMonitor struct{}

// CaptureException groups failures of one sweep into a single issue.
func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		combo := sentry.Context{}
		for k, v := range tags {
			if comboKeys[k] {
				combo[k] = v
				continue
			}
			scope.SetTag(k, v)
		}
		if len(combo) > 0 {
			scope.SetContext("combination", combo)
		}
		if id := tags["sweep_id"]; id != "" {
			scope.SetFingerprint([]string{"{{ default }}", id})
		}
		sentry.CaptureException(err)
	})
}

// Recover reports a panic and re-panics.
func (s *sentryMonitor) Recover() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(2 * time.Second)
		panic(r)
	}
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }
