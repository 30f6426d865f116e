// Package monitoring forwards errors and panics to an error tracker. The
// process-wide monitor defaults to a no-op and is replaced at start-up by
// infra/monitoring when Sentry is configured.
package monitoring

import (
	"fmt"
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	get().CaptureException(err, tags)
}

// Recover captures panics in goroutines and re-panics.
func Recover() {
	get().Recover()
}

// PanicError converts a recovered panic value into an error and reports it.
// It returns nil when r is nil.
func PanicError(r any, tags map[string]string) error {
	if r == nil {
		return nil
	}
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("%v", r)
	}
	err = fmt.Errorf("panic: %w", err)
	CaptureException(err, tags)
	return err
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}
