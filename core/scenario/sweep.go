package scenario

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/drflex/core/metrics"
	"github.com/kilianp07/drflex/core/model"
	"github.com/kilianp07/drflex/core/monitoring"
	"github.com/kilianp07/drflex/internal/eventbus"
)

// Combination is one grid point of a sweep.
type Combination struct {
	DurationH    float64 `json:"duration_h"`
	IncentivePct float64 `json:"incentive_pct"`
}

// SweepEntry is the outcome of one combination. Err is set when the
// combination was invalid or its evaluation panicked; Result is then empty.
type SweepEntry struct {
	Combination
	EvaluationID string
	Result       model.SimulationResult
	Err          error
}

// SweepResult holds the entries in grid order: durations outer, incentives
// inner.
type SweepResult struct {
	ID       string
	Entries  []SweepEntry
	Failed   int
	Duration time.Duration
}

// SweepEvent reports progress after each combination.
type SweepEvent struct {
	SweepID string
	Index   int
	Done    int
	Total   int
	Combination
	Err error
}

// SweepOptions configures Sweep.
type SweepOptions struct {
	// Start is the event start shared by every combination.
	Start  time.Time
	Params Params
	// Workers bounds concurrent evaluations; values below 1 mean 1.
	Workers int
	// Bus receives a SweepEvent per finished combination when set.
	Bus *eventbus.TypedBus[SweepEvent]
}

// Grid expands durations and incentives into combinations.
func Grid(durations, incentives []float64) []Combination {
	out := make([]Combination, 0, len(durations)*len(incentives))
	for _, d := range durations {
		for _, i := range incentives {
			out = append(out, Combination{DurationH: d, IncentivePct: i})
		}
	}
	return out
}

// Sweep evaluates every (duration, incentive) pair. A failing combination
// is recorded in its entry and never aborts the batch; only ctx
// cancellation does, between combinations.
func (o *Orchestrator) Sweep(ctx context.Context, in Inputs, durations, incentives []float64, opts SweepOptions) (SweepResult, error) {
	grid := Grid(durations, incentives)
	res := SweepResult{ID: uuid.NewString(), Entries: make([]SweepEntry, len(grid))}
	started := o.now()
	pr := o.Prepare(in)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	var done atomic.Int64
	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range grid {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry := o.sweepOne(gctx, pr, c, opts, res.ID, i)
			res.Entries[i] = entry
			if entry.Err != nil {
				failed.Add(1)
				o.log.Warnf("sweep %s: combination %v h / %v %%: %v", res.ID, c.DurationH, c.IncentivePct, entry.Err)
			}
			n := int(done.Add(1))
			if opts.Bus != nil {
				opts.Bus.Publish(SweepEvent{SweepID: res.ID, Index: i, Done: n, Total: len(grid), Combination: c, Err: entry.Err})
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	res.Failed = int(failed.Load())
	res.Duration = o.now().Sub(started)
	if err != nil {
		return res, fmt.Errorf("sweep %s cancelled after %d of %d combinations: %w", res.ID, done.Load(), len(grid), err)
	}

	if rec, ok := o.sink.(metrics.SweepRecorder); ok {
		if rerr := rec.RecordSweep(metrics.SweepEvent{
			SweepID:      res.ID,
			Combinations: len(grid),
			Failed:       res.Failed,
			Duration:     res.Duration,
			Time:         o.now(),
		}); rerr != nil {
			o.log.Warnf("sweep %s: record summary: %v", res.ID, rerr)
		}
	}
	o.log.Infof("sweep %s: %d combinations, %d failed in %s", res.ID, len(grid), res.Failed, res.Duration)
	return res, nil
}

func (o *Orchestrator) sweepOne(ctx context.Context, pr *Prepared, c Combination, opts SweepOptions, sweepID string, index int) (entry SweepEntry) {
	entry.Combination = c
	defer func() {
		if err := monitoring.PanicError(recover(), map[string]string{
			"module":        "scenario",
			"sweep_id":      sweepID,
			"index":         strconv.Itoa(index),
			"duration_h":    strconv.FormatFloat(c.DurationH, 'g', -1, 64),
			"incentive_pct": strconv.FormatFloat(c.IncentivePct, 'g', -1, 64),
		}); err != nil {
			entry.Result = model.SimulationResult{}
			entry.Err = err
		}
	}()
	ev := model.EventParameters{
		Start:        opts.Start,
		End:          opts.Start.Add(time.Duration(c.DurationH * float64(time.Hour))),
		IncentivePct: c.IncentivePct,
	}
	if err := ev.Validate(); err != nil {
		entry.Err = err
		return entry
	}
	entry.EvaluationID, entry.Result = o.Run(ctx, pr, ev, opts.Params, sweepID)
	return entry
}
