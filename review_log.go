package recall

import "time"

// ReviewLog records a single grading of a card.
type ReviewLog struct {
	CardID        string    `json:"card_id"`
	Grade         Grade     `json:"grade"`
	ReviewedAt    time.Time `json:"reviewed_at"`
	State         State     `json:"state"` // state after the review
	ElapsedDays   float64   `json:"elapsed_days"`
	ScheduledDays int       `json:"scheduled_days"`
	Fallback      bool      `json:"fallback,omitempty"` // fixed backoff replaced the policy math
}
