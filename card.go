package recall

import (
	"math"
	"time"
)

// Bounds of the memory model.
const (
	MinStability  = 0.1
	MaxStability  = 730.0 // two years
	MinDifficulty = 1.0
	MaxDifficulty = 10.0
	MinEase       = 1.3
	MaxEase       = 3.0
	InitialEase   = 1.7
	MaxScore      = 100
)

const day = 24 * time.Hour

// Card is the scheduling state of a single flashcard.
// The engine never owns cards; it returns updated copies.
type Card struct {
	ID            string     `json:"id"`
	State         State      `json:"state"`
	Due           time.Time  `json:"due"`
	Stability     float64    `json:"stability"`
	Difficulty    float64    `json:"difficulty"`
	Ease          float64    `json:"ease"`  // ease-factor policy only
	Score         int        `json:"score"` // mastery-score policy only, 0..100
	ScheduledDays int        `json:"scheduled_days"`
	Reps          int        `json:"reps"`   // successful reviews since the last lapse
	Lapses        int        `json:"lapses"` // "again" gradings ever
	LastReview    *time.Time `json:"last_review"` // nil before first review.
	LastGrade     Grade      `json:"last_grade,omitempty"`
}

// NewCard creates a never-reviewed card that is due at now.
func NewCard(id string, now time.Time) Card {
	return Card{
		ID:         id,
		State:      New,
		Due:        now,
		Stability:  MinStability,
		Difficulty: MinDifficulty,
		Ease:       InitialEase,
	}
}

// ElapsedDays returns the fractional days between the last review and now.
// It is 0 for a card that has never been reviewed and never negative.
func (c Card) ElapsedDays(now time.Time) float64 {
	if c.LastReview == nil {
		return 0
	}
	return math.Max(0, now.Sub(*c.LastReview).Hours()/24.0)
}

// Reviewed reports whether the card has been graded at least once.
func (c Card) Reviewed() bool {
	return c.LastReview != nil
}

// clone returns a deep copy of the card. Pointer fields are copied by value.
func (c Card) clone() Card {
	out := c
	if c.LastReview != nil {
		v := *c.LastReview
		out.LastReview = &v
	}
	return out
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	return c.clone()
}

// finite reports whether every real-valued memory field is finite.
func (c Card) finite() bool {
	return isFinite(c.Stability) && isFinite(c.Difficulty) && isFinite(c.Ease)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// clampS clamps stability to [MinStability, hi].
func clampS(s, hi float64) float64 {
	return math.Min(math.Max(s, MinStability), hi)
}

// clampD clamps difficulty to [1, 10].
func clampD(d float64) float64 {
	return math.Min(math.Max(d, MinDifficulty), MaxDifficulty)
}

// clampEase clamps the ease factor to [MinEase, MaxEase].
func clampEase(e float64) float64 {
	return math.Min(math.Max(e, MinEase), MaxEase)
}

// sanitize replaces a non-finite value with def.
func sanitize(f, def float64) float64 {
	if !isFinite(f) {
		return def
	}
	return f
}
