package recall

import (
	"math"
	"math/rand"
)

// fuzzBand widens the fuzz window by factor per day of interval in [start, end).
type fuzzBand struct {
	start, end float64
	factor     float64
}

var fuzzBands = []fuzzBand{
	{2.5, 7.0, 0.15},
	{7.0, 20.0, 0.10},
	{20.0, math.Inf(1), 0.05},
}

// fuzzDelta computes the half-width of the fuzz window for an interval.
// delta = 1.0 + Σ(factor * max(min(interval, end) - start, 0))
func fuzzDelta(interval float64) float64 {
	delta := 1.0
	for _, b := range fuzzBands {
		delta += b.factor * math.Max(math.Min(interval, b.end)-b.start, 0)
	}
	return delta
}

// fuzzWindow returns the inclusive [lo, hi] day range an interval may move to.
func fuzzWindow(interval, maxIvl int) (lo, hi int) {
	ivl := float64(interval)
	delta := fuzzDelta(ivl)
	hi = min(int(math.Round(ivl+delta)), maxIvl)
	lo = min(max(2, int(math.Round(ivl-delta))), hi)
	return lo, hi
}

// applyFuzz spreads Review intervals so cards graded together do not come
// due together. Intervals under 2.5 days are returned unchanged.
func applyFuzz(interval, maxIvl int, rng *rand.Rand) int {
	if float64(interval) < 2.5 {
		return interval
	}
	lo, hi := fuzzWindow(interval, maxIvl)
	return lo + rng.Intn(hi-lo+1)
}
