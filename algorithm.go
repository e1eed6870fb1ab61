package recall

import (
	"fmt"
	"math"
	"time"
)

// difficultyFactor is the multiplicative difficulty move per grade.
var difficultyFactor = [...]float64{Again: 1.2, Hard: 1.1, Good: 1.0, Easy: 0.9}

// dampening shortens intervals of harder items at equal stability.
const dampening = 0.972

// stabilityPolicy implements the StabilityDifficulty policy.
type stabilityPolicy struct {
	w                [20]float64
	logRetention     float64 // -ln(desired retention)
	maxStability     float64
	masteryStability float64
}

func newStabilityPolicy(o policyOptions) *stabilityPolicy {
	return &stabilityPolicy{
		w:                o.weights,
		logRetention:     -math.Log(o.retention),
		maxStability:     o.maxStability,
		masteryStability: o.masteryStability,
	}
}

func (p *stabilityPolicy) Kind() PolicyKind { return StabilityDifficulty }

// Next updates difficulty from the pre-update value first, then stability.
func (p *stabilityPolicy) Next(c *Card, g Grade, elapsedDays float64) (float64, error) {
	s := math.Max(c.Stability, MinStability)
	d := clampD(c.Difficulty)
	newD := nextDifficulty(d, g)

	var newS float64
	switch {
	case c.State == New || c.LastReview == nil:
		newS = p.initStability(g)
	case elapsedDays < 1:
		newS = p.shortTermStability(s, g)
	default:
		r := retrievability(elapsedDays, s)
		newS = p.nextStability(d, s, r, g)
	}
	if !isFinite(newS) || !isFinite(newD) {
		return 0, fmt.Errorf("%w: stability=%v difficulty=%v", errComputation, newS, newD)
	}

	c.Stability = clampS(newS, p.maxStability)
	c.Difficulty = newD
	if g == Again {
		return 1, nil
	}
	return p.interval(c.Stability, c.Difficulty), nil
}

func (p *stabilityPolicy) Mastered(c Card) bool {
	return c.State == Review && c.Stability >= p.masteryStability
}

// Priority is the current retrievability; never-reviewed cards sort first.
func (p *stabilityPolicy) Priority(c Card, now time.Time) float64 {
	if c.LastReview == nil {
		return 0
	}
	return retrievability(c.ElapsedDays(now), math.Max(c.Stability, MinStability))
}

// interval computes ceil(ceil(S × -ln(retention)) × 0.972^(D-1)).
func (p *stabilityPolicy) interval(stability, difficulty float64) float64 {
	optimal := math.Ceil(stability * p.logRetention)
	return math.Ceil(optimal * math.Pow(dampening, difficulty-MinDifficulty))
}

// retrievability computes R(t, S) = e^(-t/S).
func retrievability(elapsedDays, stability float64) float64 {
	return math.Exp(-elapsedDays / stability)
}

// nextDifficulty computes D' = clamp(D × factor(G)).
func nextDifficulty(difficulty float64, g Grade) float64 {
	return clampD(difficulty * difficultyFactor[g])
}

// initStability returns the initial stability S₀(G) = w[G-1].
func (p *stabilityPolicy) initStability(g Grade) float64 {
	return p.w[g-1]
}

// shortTermStability computes the same-day review stability.
// SInc = e^(w[17] * (G - 3 + w[18])) * S^(-w[19])
// If G ∈ {Good, Easy}: SInc = max(SInc, 1.0)
func (p *stabilityPolicy) shortTermStability(stability float64, g Grade) float64 {
	sInc := math.Exp(p.w[17]*(float64(g)-3+p.w[18])) * math.Pow(stability, -p.w[19])
	if g == Good || g == Easy {
		sInc = math.Max(sInc, 1.0)
	}
	return stability * sInc
}

// nextStability dispatches to nextRecallStability or nextForgetStability.
func (p *stabilityPolicy) nextStability(d, s, r float64, g Grade) float64 {
	if g == Again {
		return p.nextForgetStability(d, s, r)
	}
	return p.nextRecallStability(d, s, r, g)
}

// nextRecallStability computes stability after a successful recall (Hard/Good/Easy).
// S'_r = S * (1 + e^w[8] * (11-D) * S^(-w[9]) * (e^((1-R)*w[10]) - 1) * hardPenalty * easyBonus)
func (p *stabilityPolicy) nextRecallStability(d, s, r float64, g Grade) float64 {
	hardPenalty := 1.0
	if g == Hard {
		hardPenalty = p.w[15]
	}
	easyBonus := 1.0
	if g == Easy {
		easyBonus = p.w[16]
	}
	return s * (1 + math.Exp(p.w[8])*
		(11-d)*
		math.Pow(s, -p.w[9])*
		(math.Exp((1-r)*p.w[10])-1)*
		hardPenalty*easyBonus)
}

// nextForgetStability computes stability after forgetting (Again).
// S'_f = min(long, short)
// long = w[11] * D^(-w[12]) * ((S+1)^w[13] - 1) * e^((1-R)*w[14])
// short = S / e^(w[17] * w[18])
func (p *stabilityPolicy) nextForgetStability(d, s, r float64) float64 {
	long := p.w[11] *
		math.Pow(d, -p.w[12]) *
		(math.Pow(s+1, p.w[13]) - 1) *
		math.Exp((1-r)*p.w[14])
	short := s / math.Exp(p.w[17]*p.w[18])
	return math.Min(long, short)
}
