package recall

import "time"

// scoreDelta is the mastery score move per grade.
var scoreDelta = [...]int{Again: -20, Hard: 10, Good: 25, Easy: 40}

// scoreLadder maps each band of 20 points to an interval in days.
var scoreLadder = [...]float64{1, 2, 4, 7, 14, 30}

// masteryPolicy implements the MasteryScore policy.
type masteryPolicy struct {
	logRetention float64
	maxStability float64
}

func (p *masteryPolicy) Kind() PolicyKind { return MasteryScore }

func (p *masteryPolicy) Next(c *Card, g Grade, _ float64) (float64, error) {
	score := min(max(c.Score+scoreDelta[g], 0), MaxScore)
	ivl := scoreLadder[min(score/20, len(scoreLadder)-1)]
	if g == Again {
		ivl = 1
	}

	c.Score = score
	c.Stability = equivalentStability(ivl, p.logRetention, p.maxStability)
	return ivl, nil
}

// Mastered retires a card once its score reaches 100.
func (p *masteryPolicy) Mastered(c Card) bool {
	return c.Score >= MaxScore
}

// Priority is the running score; lowest first.
func (p *masteryPolicy) Priority(c Card, _ time.Time) float64 {
	return float64(c.Score)
}

