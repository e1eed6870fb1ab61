package recall

import (
	"encoding"
	"fmt"
	"math"
	"time"
)

// PolicyKind selects the scheduling formula family. A Scheduler runs exactly
// one policy for its whole lifetime.
type PolicyKind int

const (
	StabilityDifficulty PolicyKind = iota // Memory stability/difficulty model (default).
	EaseFactor                            // Interval × ease factor.
	MasteryScore                          // 0-100 mastery score with an interval ladder.
)

var (
	policyNames  = [...]string{StabilityDifficulty: "stability", EaseFactor: "ease", MasteryScore: "mastery"}
	policyByName = map[string]PolicyKind{
		"stability": StabilityDifficulty,
		"ease":      EaseFactor,
		"mastery":   MasteryScore,
	}
)

var (
	_ fmt.Stringer             = PolicyKind(0)
	_ encoding.TextMarshaler   = PolicyKind(0)
	_ encoding.TextUnmarshaler = (*PolicyKind)(nil)
)

func (k PolicyKind) isValid() bool {
	return k >= StabilityDifficulty && k <= MasteryScore
}

// String returns "stability", "ease" or "mastery".
func (k PolicyKind) String() string {
	if k.isValid() {
		return policyNames[k]
	}
	return fmt.Sprintf("PolicyKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k PolicyKind) MarshalText() ([]byte, error) {
	if !k.isValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPolicy, int(k))
	}
	return []byte(policyNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PolicyKind) UnmarshalText(text []byte) error {
	v, ok := policyByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPolicy, text)
	}
	*k = v
	return nil
}

// SchedulingPolicy is the memory math of one formula family. Next receives
// the card before any bookkeeping (State, Reps and Lapses are the pre-grade
// values), updates the memory fields it owns and returns the raw interval in
// days. The Scheduler rounds, clamps and validates the result.
type SchedulingPolicy interface {
	Kind() PolicyKind
	Next(c *Card, g Grade, elapsedDays float64) (float64, error)
	// Mastered reports advisory retirement from active session pools.
	Mastered(c Card) bool
	// Priority orders a session pool ascending; weaker cards sort first.
	Priority(c Card, now time.Time) float64
}

type policyOptions struct {
	weights          [20]float64
	retention        float64
	maxStability     float64
	masteryStability float64
	masteryInterval  int
}

func newPolicy(kind PolicyKind, o policyOptions) (SchedulingPolicy, error) {
	logRetention := -math.Log(o.retention)
	switch kind {
	case StabilityDifficulty:
		return newStabilityPolicy(o), nil
	case EaseFactor:
		return &easePolicy{
			logRetention:    logRetention,
			maxStability:    o.maxStability,
			masteryInterval: o.masteryInterval,
		}, nil
	case MasteryScore:
		return &masteryPolicy{
			logRetention: logRetention,
			maxStability: o.maxStability,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidPolicy, int(kind))
	}
}

// equivalentStability maps an interval onto the stability at which
// retrievability reaches the target retention exactly at the due date.
func equivalentStability(intervalDays, logRetention, maxStability float64) float64 {
	return clampS(intervalDays/logRetention, maxStability)
}
