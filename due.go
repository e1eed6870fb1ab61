package recall

import (
	"math"
	"time"
)

// Retrievability returns the probability of recall for the card at the given time.
// Returns 0 if the card has never been reviewed.
func (s *Scheduler) Retrievability(card Card, now time.Time) float64 {
	if card.LastReview == nil {
		return 0
	}
	r := retrievability(card.ElapsedDays(now), math.Max(card.Stability, MinStability))
	if !isFinite(r) {
		return 0
	}
	return r
}

// IsDue reports whether the card is owed a review at now. A card is due
// when it has never been reviewed, when it is in a short cycle (New,
// Learning, Relearning), when its due date has arrived, or when its
// retrievability has dropped below the desired retention.
//
// The retrievability check decays with the larger of the stored stability
// and the stability implied by ScheduledDays. Stored stability is capped at
// MaximumStability while intervals from the ease and mastery policies, or
// fuzzed intervals, may exceed S × −ln(retention); the implied stability
// keeps such cards from coming due before their scheduled date.
func (s *Scheduler) IsDue(card Card, now time.Time) bool {
	if card.LastReview == nil || card.State.shortCycle() {
		return true
	}
	if !now.Before(card.Due) {
		return true
	}
	stability := math.Max(card.Stability, MinStability)
	if implied := float64(card.ScheduledDays) / -math.Log(s.desiredRetention); implied > stability {
		stability = implied
	}
	r := retrievability(card.ElapsedDays(now), stability)
	return !isFinite(r) || r < s.desiredRetention
}
