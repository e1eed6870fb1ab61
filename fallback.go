package recall

import "math"

// fallbackBase is the base interval in days per grade for the fallback schedule.
var fallbackBase = [...]float64{Again: 1, Hard: 3, Good: 7, Easy: 14}

// fallbackGrowth scales the base interval per prior successful repetition.
const fallbackGrowth = 1.5

// fallbackInterval is the deterministic schedule used when the policy math
// faults: ceil(base(G) × 1.5^reps), capped at maxDays.
func fallbackInterval(g Grade, reps int, maxDays float64) int {
	ivl := math.Ceil(fallbackBase[g] * math.Pow(fallbackGrowth, float64(max(reps, 0))))
	return int(math.Max(1, math.Min(ivl, maxDays)))
}

// restoreMemory resets the memory fields of c to the sanitized, clamped
// pre-grade values of prior.
func restoreMemory(c *Card, prior Card, maxStability float64) {
	c.Stability = clampS(sanitize(prior.Stability, MinStability), maxStability)
	c.Difficulty = clampD(sanitize(prior.Difficulty, MinDifficulty))
	c.Ease = normalizeEase(prior.Ease)
	c.Score = min(max(prior.Score, 0), MaxScore)
}

func normalizeEase(e float64) float64 {
	if e == 0 || !isFinite(e) {
		return InitialEase
	}
	return clampEase(e)
}
