package recall

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestPolicyKindText(t *testing.T) {
	for _, k := range []PolicyKind{StabilityDifficulty, EaseFactor, MasteryScore} {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", k, err)
		}
		var got PolicyKind
		if err := got.UnmarshalText(text); err != nil || got != k {
			t.Errorf("UnmarshalText(%s) = %v, %v", text, got, err)
		}
	}
	if _, err := PolicyKind(3).MarshalText(); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("MarshalText(3) err = %v", err)
	}
	var k PolicyKind
	if err := k.UnmarshalText([]byte("sm2")); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("UnmarshalText(sm2) err = %v", err)
	}
}

func TestNewPolicyKinds(t *testing.T) {
	o := policyOptions{weights: DefaultWeights, retention: 0.9, maxStability: MaxStability}
	for _, k := range []PolicyKind{StabilityDifficulty, EaseFactor, MasteryScore} {
		p, err := newPolicy(k, o)
		if err != nil {
			t.Fatalf("newPolicy(%v): %v", k, err)
		}
		if p.Kind() != k {
			t.Errorf("Kind() = %v, want %v", p.Kind(), k)
		}
	}
}

func TestEquivalentStability(t *testing.T) {
	lr := -math.Log(0.9)
	assertFloat(t, "10 days", equivalentStability(10, lr, MaxStability), 10/lr)
	assertFloat(t, "capped", equivalentStability(1000, lr, MaxStability), MaxStability)
}

// --- EaseFactor ---

func TestEasePolicyMoves(t *testing.T) {
	p := &easePolicy{logRetention: -math.Log(0.9), maxStability: MaxStability, masteryInterval: 180}
	tests := []struct {
		g        Grade
		ivl      float64
		wantIvl  float64
		wantEase float64
	}{
		{Again, 10, 1, 2.35},
		{Hard, 4, 5, 2.45},
		{Good, 4, 10, 2.55},
		{Easy, 4, 20, 2.6},
	}
	for _, tt := range tests {
		t.Run(tt.g.String(), func(t *testing.T) {
			c := Card{State: Review, Ease: 2.5, ScheduledDays: int(tt.ivl)}
			got, err := p.Next(&c, tt.g, 0)
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			assertFloat(t, "interval", got, tt.wantIvl)
			assertFloat(t, "ease", c.Ease, tt.wantEase)
			assertFloat(t, "stability", c.Stability, equivalentStability(tt.wantIvl, p.logRetention, MaxStability))
		})
	}
}

func TestEasePolicyEaseBounds(t *testing.T) {
	p := &easePolicy{logRetention: -math.Log(0.9), maxStability: MaxStability}
	c := Card{Ease: MinEase, ScheduledDays: 1}
	p.Next(&c, Again, 0)
	assertFloat(t, "floor", c.Ease, MinEase)

	c = Card{Ease: MaxEase, ScheduledDays: 1}
	p.Next(&c, Easy, 0)
	assertFloat(t, "ceiling", c.Ease, MaxEase)
}

func TestEasePolicyNewCardStartsAtInitialEase(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{Policy: EaseFactor})
	c, _ := mustReview(t, s, Card{ID: "e", State: New, Due: t0}, Good, t0)
	// ceil(1 × 1.7)
	if c.ScheduledDays != 2 {
		t.Errorf("ScheduledDays = %d, want 2", c.ScheduledDays)
	}
	assertFloat(t, "Ease", c.Ease, InitialEase+goodEaseReward)
}

func TestEasePolicyPriorityMostOverdueFirst(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{Policy: EaseFactor})
	overdue := Card{Due: t0.Add(-3 * 24 * time.Hour)}
	upcoming := Card{Due: t0.Add(24 * time.Hour)}
	if s.Priority(overdue, t0) >= s.Priority(upcoming, t0) {
		t.Error("overdue card should sort before upcoming card")
	}
	assertFloat(t, "overdue", s.Priority(overdue, t0), -3)
}

func TestEasePolicyMastered(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{Policy: EaseFactor, MasteryInterval: 30})
	if !s.Mastered(Card{State: Review, ScheduledDays: 30}) {
		t.Error("30-day review interval should be mastered")
	}
	if s.Mastered(Card{State: Relearning, ScheduledDays: 60}) {
		t.Error("Relearning card should not be mastered")
	}
}

// --- MasteryScore ---

func TestMasteryPolicyScores(t *testing.T) {
	p := &masteryPolicy{logRetention: -math.Log(0.9), maxStability: MaxStability}
	tests := []struct {
		name      string
		score     int
		g         Grade
		wantScore int
		wantIvl   float64
	}{
		{"again floors at zero", 10, Again, 0, 1},
		{"again from high", 90, Again, 70, 1},
		{"hard", 0, Hard, 10, 1},
		{"good", 30, Good, 55, 4},
		{"easy", 50, Easy, 90, 14},
		{"capped", 80, Easy, 100, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Card{Score: tt.score}
			got, err := p.Next(&c, tt.g, 0)
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if c.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", c.Score, tt.wantScore)
			}
			assertFloat(t, "interval", got, tt.wantIvl)
		})
	}
}

func TestMasteryPolicyMasteredAndPriority(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{Policy: MasteryScore})
	if !s.Mastered(Card{Score: 100}) || s.Mastered(Card{Score: 99}) {
		t.Error("mastery threshold should be exactly 100")
	}
	assertFloat(t, "priority", s.Priority(Card{Score: 45}, t0), 45)
}

// --- StabilityDifficulty ---

func TestStabilityPolicyMastered(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{MasteryStability: 100})
	if !s.Mastered(Card{State: Review, Stability: 100}) {
		t.Error("Review card at the mastery stability should be mastered")
	}
	if s.Mastered(Card{State: Learning, Stability: 500}) {
		t.Error("Learning card should not be mastered")
	}
}

type nanPriorityPolicy struct{ SchedulingPolicy }

func (nanPriorityPolicy) Priority(Card, time.Time) float64 { return math.NaN() }

func TestSchedulerPriorityNaN(t *testing.T) {
	s := mustScheduler(t, SchedulerConfig{})
	s.policy = nanPriorityPolicy{s.policy}
	if got := s.Priority(reviewCard(), t0); !math.IsInf(got, -1) {
		t.Errorf("Priority = %v, want -Inf", got)
	}
}
