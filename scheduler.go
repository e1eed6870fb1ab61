package recall

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// SchedulerConfig configures a Scheduler.
// Zero values produce sensible defaults; see field comments.
type SchedulerConfig struct {
	Policy           PolicyKind   `json:"policy" yaml:"policy"`                       // zero → StabilityDifficulty
	Weights          [20]float64  `json:"weights" yaml:"-"`                           // zero → DefaultWeights
	DesiredRetention float64      `json:"desired_retention" yaml:"desired_retention"` // zero → 0.9
	MaximumStability float64      `json:"maximum_stability" yaml:"maximum_stability"` // zero → 730; also the interval cap in days
	GraduationReps   int          `json:"graduation_reps" yaml:"graduation_reps"`     // zero → 2
	MasteryStability float64      `json:"mastery_stability" yaml:"mastery_stability"` // zero → 365
	MasteryInterval  int          `json:"mastery_interval" yaml:"mastery_interval"`   // zero → 180
	// Fuzzed intervals may run past S × −ln(retention). IsDue decays with
	// ScheduledDays in that case, so a fuzzed card still waits for Due.
	EnableFuzz       bool         `json:"enable_fuzz" yaml:"enable_fuzz"`             // zero false → deterministic intervals
	Seed             int64        `json:"seed" yaml:"seed"`                           // fuzz stream seed
	Logger           *slog.Logger `json:"-" yaml:"-"`                                 // nil → discard
}

// Scheduler turns a card and a grade into the card's next scheduling state.
//
// A Scheduler is not safe for concurrent use when fuzzing is enabled, since
// the fuzz stream is shared.
type Scheduler struct {
	policy           SchedulingPolicy
	weights          [20]float64
	desiredRetention float64
	maximumStability float64
	graduationReps   int
	masteryStability float64
	masteryInterval  int
	enableFuzz       bool
	seed             int64
	rng              *rand.Rand
	logger           *slog.Logger
}

// NewScheduler creates a Scheduler from the given config.
// Zero-value fields are filled with defaults; invalid values return an error.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	w := cfg.Weights
	if w == [20]float64{} {
		w = DefaultWeights
	}
	if err := ValidateWeights(w); err != nil {
		return nil, err
	}

	dr := cfg.DesiredRetention
	if dr == 0 {
		dr = 0.9
	}
	if dr <= 0 || dr >= 1 {
		return nil, fmt.Errorf("%w: desired retention %f out of range (0, 1)", ErrInvalidParameters, dr)
	}

	maxS := cfg.MaximumStability
	if maxS == 0 {
		maxS = MaxStability
	}
	if maxS < 1 || !isFinite(maxS) {
		return nil, fmt.Errorf("%w: maximum stability %f must be at least 1", ErrInvalidParameters, maxS)
	}

	grad := cfg.GraduationReps
	if grad == 0 {
		grad = 2
	}
	if grad < 0 {
		return nil, fmt.Errorf("%w: graduation reps %d must be positive", ErrInvalidParameters, grad)
	}

	masteryS := cfg.MasteryStability
	if masteryS == 0 {
		masteryS = 365
	}
	masteryIvl := cfg.MasteryInterval
	if masteryIvl == 0 {
		masteryIvl = 180
	}
	if masteryS < 0 || masteryIvl < 0 {
		return nil, fmt.Errorf("%w: mastery thresholds must be positive", ErrInvalidParameters)
	}

	policy, err := newPolicy(cfg.Policy, policyOptions{
		weights:          w,
		retention:        dr,
		maxStability:     maxS,
		masteryStability: masteryS,
		masteryInterval:  masteryIvl,
	})
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Scheduler{
		policy:           policy,
		weights:          w,
		desiredRetention: dr,
		maximumStability: maxS,
		graduationReps:   grad,
		masteryStability: masteryS,
		masteryInterval:  masteryIvl,
		enableFuzz:       cfg.EnableFuzz,
		seed:             cfg.Seed,
		rng:              rand.New(rand.NewSource(cfg.Seed)),
		logger:           logger,
	}, nil
}

// Policy returns the scheduling policy in use.
func (s *Scheduler) Policy() SchedulingPolicy {
	return s.policy
}

// DesiredRetention returns the retention target used by the due check.
func (s *Scheduler) DesiredRetention() float64 {
	return s.desiredRetention
}

// ReviewCard applies a grade to the card at the given time.
// It returns the updated card and a review log. The input card is not mutated.
//
// The only error is ErrInvalidGrade. Faults inside the policy math are
// absorbed by the fallback schedule and reported on ReviewLog.Fallback.
func (s *Scheduler) ReviewCard(card Card, grade Grade, now time.Time) (Card, ReviewLog, error) {
	if !grade.IsValid() {
		return card, ReviewLog{}, fmt.Errorf("%w: %d", ErrInvalidGrade, int(grade))
	}

	c := card.clone()
	elapsedDays := c.ElapsedDays(now)

	days, err := s.updateMemory(&c, grade, elapsedDays)
	fallback := err != nil
	if fallback {
		s.logger.Warn("scheduling fell back to fixed backoff",
			"card_id", card.ID,
			"grade", grade.String(),
			"reps", card.Reps,
			"error", err,
		)
		restoreMemory(&c, card, s.maximumStability)
		days = fallbackInterval(grade, card.Reps, s.maximumStability)
	}

	s.transition(&c, grade)

	if grade == Again {
		days = 1
	} else if s.enableFuzz && c.State == Review {
		days = applyFuzz(days, s.maxIntervalDays(), s.rng)
	}

	c.ScheduledDays = days
	c.Due = now.Add(time.Duration(days) * day)
	c.LastReview = &now
	c.LastGrade = grade

	log := ReviewLog{
		CardID:        c.ID,
		Grade:         grade,
		ReviewedAt:    now,
		State:         c.State,
		ElapsedDays:   elapsedDays,
		ScheduledDays: days,
		Fallback:      fallback,
	}

	s.logger.Debug("card reviewed",
		"card_id", c.ID,
		"grade", grade.String(),
		"state", c.State.String(),
		"interval_days", days,
		"stability", c.Stability,
		"difficulty", c.Difficulty,
	)

	return c, log, nil
}

// PreviewCard returns the result of reviewing the card with each possible grade.
func (s *Scheduler) PreviewCard(card Card, now time.Time) map[Grade]Card {
	result := make(map[Grade]Card, len(Grades))
	for _, g := range Grades {
		c, _, _ := s.ReviewCard(card, g, now)
		result[g] = c
	}
	return result
}

// RescheduleCard replays the given review logs to rebuild the card's scheduling state.
// Returns ErrCardIDMismatch if any log's CardID does not match the card's ID.
func (s *Scheduler) RescheduleCard(card Card, logs []ReviewLog) (Card, error) {
	c := card.clone()
	for _, log := range logs {
		if log.CardID != c.ID {
			return Card{}, fmt.Errorf("%w: card %q, log %q", ErrCardIDMismatch, c.ID, log.CardID)
		}
		var err error
		c, _, err = s.ReviewCard(c, log.Grade, log.ReviewedAt)
		if err != nil {
			return Card{}, err
		}
	}
	return c, nil
}

// Mastered reports whether the policy considers the card retired from
// active pools. Retirement is advisory; the card stays schedulable.
func (s *Scheduler) Mastered(card Card) bool {
	return s.policy.Mastered(card)
}

// Priority returns the pool ordering key of the card; lower sorts first.
func (s *Scheduler) Priority(card Card, now time.Time) float64 {
	p := s.policy.Priority(card, now)
	if math.IsNaN(p) {
		return math.Inf(-1)
	}
	return p
}

// updateMemory runs the policy and returns the interval in whole days,
// rounded up and clamped to [1, maximum stability].
func (s *Scheduler) updateMemory(c *Card, grade Grade, elapsedDays float64) (int, error) {
	raw, err := s.policy.Next(c, grade, elapsedDays)
	if err != nil {
		return 0, err
	}
	if !isFinite(raw) || !c.finite() {
		return 0, fmt.Errorf("%w: interval=%v stability=%v difficulty=%v ease=%v",
			errComputation, raw, c.Stability, c.Difficulty, c.Ease)
	}

	c.Stability = clampS(c.Stability, s.maximumStability)
	c.Difficulty = clampD(c.Difficulty)
	c.Ease = normalizeEase(c.Ease)

	days := math.Min(math.Max(math.Ceil(raw), 1), float64(s.maxIntervalDays()))
	return int(days), nil
}

// transition applies the state machine and repetition bookkeeping.
func (s *Scheduler) transition(c *Card, grade Grade) {
	prev := c.State

	if !grade.Recalled() {
		c.Lapses++
		c.Reps = 0
		if prev == Review || prev == Relearning {
			c.State = Relearning
		} else {
			c.State = Learning
		}
		return
	}

	c.Reps++
	switch prev {
	case Learning, Relearning:
		if c.Reps >= s.graduationReps {
			c.State = Review
		}
	case Review:
		// Successful reviews keep the card in Review.
	default:
		c.State = Learning
	}
}

func (s *Scheduler) maxIntervalDays() int {
	return int(s.maximumStability)
}

// schedulerJSON is the serialized form of a Scheduler.
type schedulerJSON struct {
	Policy           PolicyKind  `json:"policy"`
	Weights          [20]float64 `json:"weights"`
	DesiredRetention float64     `json:"desired_retention"`
	MaximumStability float64     `json:"maximum_stability"`
	GraduationReps   int         `json:"graduation_reps"`
	MasteryStability float64     `json:"mastery_stability"`
	MasteryInterval  int         `json:"mastery_interval"`
	EnableFuzz       bool        `json:"enable_fuzz"`
	Seed             int64       `json:"seed"`
}

// MarshalJSON implements json.Marshaler.
func (s *Scheduler) MarshalJSON() ([]byte, error) {
	return json.Marshal(schedulerJSON{
		Policy:           s.policy.Kind(),
		Weights:          s.weights,
		DesiredRetention: s.desiredRetention,
		MaximumStability: s.maximumStability,
		GraduationReps:   s.graduationReps,
		MasteryStability: s.masteryStability,
		MasteryInterval:  s.masteryInterval,
		EnableFuzz:       s.enableFuzz,
		Seed:             s.seed,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
// It rebuilds the policy from the serialized config. The logger is reset to
// discard; the fuzz stream restarts from the seed.
func (s *Scheduler) UnmarshalJSON(data []byte) error {
	var j schedulerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	rebuilt, err := NewScheduler(SchedulerConfig{
		Policy:           j.Policy,
		Weights:          j.Weights,
		DesiredRetention: j.DesiredRetention,
		MaximumStability: j.MaximumStability,
		GraduationReps:   j.GraduationReps,
		MasteryStability: j.MasteryStability,
		MasteryInterval:  j.MasteryInterval,
		EnableFuzz:       j.EnableFuzz,
		Seed:             j.Seed,
	})
	if err != nil {
		return err
	}
	*s = *rebuilt
	return nil
}
