package recall

import (
	"fmt"
	"math"
	"time"
)

// Ease-factor policy moves.
const (
	hardIntervalFactor = 1.2
	easyBonus          = 2.0
	againEasePenalty   = 0.15
	hardEasePenalty    = 0.05
	goodEaseReward     = 0.05
	easyEaseReward     = 0.1
)

// easePolicy implements the EaseFactor policy: the next interval is the
// previous one scaled by the card's ease factor.
type easePolicy struct {
	logRetention    float64
	maxStability    float64
	masteryInterval int
}

func (p *easePolicy) Kind() PolicyKind { return EaseFactor }

func (p *easePolicy) Next(c *Card, g Grade, _ float64) (float64, error) {
	ease := c.Ease
	if ease == 0 {
		ease = InitialEase
	}
	ivl := math.Max(float64(c.ScheduledDays), 1)

	switch g {
	case Again:
		ivl = 1
		ease -= againEasePenalty
	case Hard:
		ivl = math.Ceil(ivl * hardIntervalFactor)
		ease -= hardEasePenalty
	case Good:
		ivl = math.Ceil(ivl * ease)
		ease += goodEaseReward
	case Easy:
		ivl = math.Ceil(ivl * ease * easyBonus)
		ease += easyEaseReward
	}
	if !isFinite(ease) || !isFinite(ivl) {
		return 0, fmt.Errorf("%w: ease=%v interval=%v", errComputation, ease, ivl)
	}

	c.Ease = clampEase(ease)
	c.Stability = equivalentStability(ivl, p.logRetention, p.maxStability)
	return ivl, nil
}

func (p *easePolicy) Mastered(c Card) bool {
	return c.State == Review && c.ScheduledDays >= p.masteryInterval
}

// Priority is the signed time until due in days; the most overdue sorts first.
func (p *easePolicy) Priority(c Card, now time.Time) float64 {
	return c.Due.Sub(now).Hours() / 24.0
}
