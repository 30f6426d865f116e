package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/drflex/core/metrics"
	"github.com/kilianp07/drflex/core/scenario"
	"github.com/kilianp07/drflex/internal/eventbus"
)

// StartSweepCollector subscribes to the sweep bus and forwards progress to
// the recorder. It stops when the bus is closed, or when the context is
// canceled after draining events already buffered. The returned channel is
// closed once the collector has exited.
func StartSweepCollector(ctx context.Context, bus *eventbus.TypedBus[scenario.SweepEvent], rec coremetrics.ProgressRecorder) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || rec == nil {
		close(done)
		return done
	}
	sub := bus.SubscribeN(64)
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case ev, ok := <-sub:
						if !ok {
							return
						}
						record(rec, ev)
					default:
						return
					}
				}
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(rec, ev)
			}
		}
	}()
	return done
}

func record(rec coremetrics.ProgressRecorder, ev scenario.SweepEvent) {
	_ = rec.RecordSweepProgress(ev.SweepID, ev.Done, ev.Total, ev.Err != nil)
}
