// Package series contains the time-series plumbing shared by the simulation
// engine: interval inference, reindexing of coarse market data onto the load
// index and energy integration.
package series

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/drflex/core/model"
)

// InferInterval returns the most common positive spacing between consecutive
// timestamps. ok is false when fewer than two timestamps exist or no positive
// spacing is found.
func InferInterval(times []time.Time) (time.Duration, bool) {
	if len(times) < 2 {
		return 0, false
	}
	counts := make(map[time.Duration]int)
	for i := 1; i < len(times); i++ {
		d := times[i].Sub(times[i-1])
		if d > 0 {
			counts[d]++
		}
	}
	var best time.Duration
	bestCount := 0
	for d, c := range counts {
		if c > bestCount || (c == bestCount && d < best) {
			best, bestCount = d, c
		}
	}
	return best, bestCount > 0
}

// IntervalHours is InferInterval expressed in hours.
func IntervalHours(times []time.Time) (float64, bool) {
	d, ok := InferInterval(times)
	if !ok {
		return 0, false
	}
	return d.Hours(), true
}

// Reindex aligns src onto index. Each target takes the last source value at
// or before it; targets before the first source sample take the first value.
// An empty source yields zeros.
func Reindex(src model.TimeSeries, index []time.Time) []float64 {
	out := make([]float64, len(index))
	n := min(len(src.Times), len(src.Values))
	if n == 0 {
		return out
	}
	for i, t := range index {
		j := sort.Search(n, func(k int) bool { return src.Times[k].After(t) }) - 1
		if j < 0 {
			j = 0
		}
		out[i] = src.Values[j]
	}
	return out
}

// ReindexBalancing aligns balancing intervals onto index with the same
// forward then backward fill rule as Reindex.
func ReindexBalancing(src model.BalancingSeries, index []time.Time) model.BalancingSeries {
	out := make(model.BalancingSeries, len(index))
	if len(src) == 0 {
		for i, t := range index {
			out[i] = model.BalancingPoint{Time: t}
		}
		return out
	}
	for i, t := range index {
		j := sort.Search(len(src), func(k int) bool { return src[k].Time.After(t) }) - 1
		if j < 0 {
			j = 0
		}
		p := src[j]
		p.Time = t
		out[i] = p
	}
	return out
}

// WindowIndices returns the positions of times inside the event window.
func WindowIndices(times []time.Time, ev model.EventParameters) []int {
	var idx []int
	for i, t := range times {
		if ev.Contains(t) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Energy integrates a power series sampled every stepH hours.
func Energy(values []float64, stepH float64) float64 {
	return floats.Sum(values) * stepH
}

// AddAt adds src onto dst wherever src timestamps exist in index. Points of
// src outside index are returned as dropped.
func AddAt(dst []float64, index []time.Time, src model.TimeSeries) (dropped int) {
	pos := make(map[int64]int, len(index))
	for i, t := range index {
		pos[t.UnixNano()] = i
	}
	for i, t := range src.Times {
		j, ok := pos[t.UnixNano()]
		if !ok {
			if src.Values[i] != 0 {
				dropped++
			}
			continue
		}
		dst[j] += src.Values[i]
	}
	return dropped
}
