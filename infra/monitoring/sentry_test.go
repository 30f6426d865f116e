package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/drflex/core/monitoring"
)

func TestNewSentryMonitorDisabled(t *testing.T) {
	m, err := NewSentryMonitor(Config{})
	require.NoError(t, err)
	_, ok := m.(coremon.NopMonitor)
	assert.True(t, ok, "empty DSN should yield NopMonitor, got %T", m)
}

func TestNewSentryMonitorInvalidRate(t *testing.T) {
	_, err := NewSentryMonitor(Config{DSN: "https://key@example.com/1", TracesSampleRate: 2})
	assert.Error(t, err)
}

func TestSentryMonitorCapturesTags(t *testing.T) {
	var events []*sentry.Event
	require.NoError(t, sentry.Init(sentry.ClientOptions{
		Dsn: "https://key@example.com/1",
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			events = append(events, e)
			return nil
		},
	}))
	m := &sentryMonitor{}
	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("sweep combination failed"), map[string]string{"module": "scenario"})
	m.Flush(time.Second)

	require.Len(t, events, 1)
	assert.Equal(t, "scenario", events[0].Tags["module"])
}

func TestSentryMonitorGroupsSweepFailures(t *testing.T) {
	var events []*sentry.Event
	require.NoError(t, sentry.Init(sentry.ClientOptions{
		Dsn: "https://key@example.com/1",
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			events = append(events, e)
			return nil
		},
	}))
	m := &sentryMonitor{}
	m.CaptureException(errors.New("boom"), map[string]string{
		"module":        "scenario",
		"sweep_id":      "s1",
		"index":         "3",
		"duration_h":    "2",
		"incentive_pct": "20",
	})
	m.Flush(time.Second)

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "s1", ev.Tags["sweep_id"])
	assert.NotContains(t, ev.Tags, "duration_h")
	assert.Equal(t, []string{"{{ default }}", "s1"}, ev.Fingerprint)
	require.Contains(t, ev.Contexts, "combination")
	assert.Equal(t, "20", ev.Contexts["combination"]["incentive_pct"])
}
