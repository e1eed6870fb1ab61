package recall

import (
	"math"
	"testing"
	"time"
)

const epsilon = 1e-6

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %.6f, want %.6f (diff %.6f)", name, got, want, math.Abs(got-want))
	}
}

func testStabilityPolicy() *stabilityPolicy {
	return newStabilityPolicy(policyOptions{
		weights:          DefaultWeights,
		retention:        0.9,
		maxStability:     MaxStability,
		masteryStability: 365,
	})
}

func TestRetrievabilityAtZero(t *testing.T) {
	assertFloat(t, "R(0, 5)", retrievability(0, 5), 1.0)
}

func TestRetrievabilityAtStability(t *testing.T) {
	// R(S, S) = e^-1
	assertFloat(t, "R(10, 10)", retrievability(10, 10), math.Exp(-1))
}

func TestRetrievabilityDecay(t *testing.T) {
	prev := 1.0
	for _, days := range []float64{1, 5, 10, 30, 100} {
		r := retrievability(days, 10)
		if r >= prev {
			t.Errorf("R(%v, 10) = %f, want < %f", days, r, prev)
		}
		prev = r
	}
}

func TestInitStability(t *testing.T) {
	p := testStabilityPolicy()
	for _, g := range Grades {
		assertFloat(t, "S0("+g.String()+")", p.initStability(g), DefaultWeights[g-1])
	}
}

func TestNextDifficulty(t *testing.T) {
	tests := []struct {
		d    float64
		g    Grade
		want float64
	}{
		{5, Again, 6},
		{5, Hard, 5.5},
		{5, Good, 5},
		{5, Easy, 4.5},
		{9, Again, 10}, // clamped high
		{1, Easy, 1},   // clamped low
	}
	for _, tt := range tests {
		assertFloat(t, "nextDifficulty", nextDifficulty(tt.d, tt.g), tt.want)
	}
}

func TestShortTermStability(t *testing.T) {
	p := testStabilityPolicy()
	s := DefaultWeights[2]
	if got := p.shortTermStability(s, Again); got >= s {
		t.Errorf("short-term Again = %f, want < %f", got, s)
	}
	assertFloat(t, "short-term Good", p.shortTermStability(s, Good), s)
	if got := p.shortTermStability(s, Easy); got <= s {
		t.Errorf("short-term Easy = %f, want > %f", got, s)
	}
}

func TestNextForgetStabilityScenario(t *testing.T) {
	p := testStabilityPolicy()
	// S=10, D=5, five days elapsed.
	r := retrievability(5, 10)
	got := p.nextForgetStability(5, 10, r)
	assertFloat(t, "S'_f", got, 2.257950891804755)
}

func TestNextRecallStabilityOrdering(t *testing.T) {
	p := testStabilityPolicy()
	r := retrievability(5, 10)
	hard := p.nextRecallStability(5, 10, r, Hard)
	good := p.nextRecallStability(5, 10, r, Good)
	easy := p.nextRecallStability(5, 10, r, Easy)
	if !(10 < hard && hard < good && good < easy) {
		t.Errorf("recall stability ordering: hard=%f good=%f easy=%f", hard, good, easy)
	}
	assertFloat(t, "S'_r(Good)", good, 107.77905827757363)
}

func TestIntervalDampening(t *testing.T) {
	p := testStabilityPolicy()
	// ceil(100 × 0.10536) = 11; D=1 → 11.
	assertFloat(t, "interval(100, 1)", p.interval(100, 1), 11)
	// Harder items at the same stability get shorter intervals.
	if p.interval(100, 10) >= p.interval(100, 1) {
		t.Errorf("interval(100, 10) = %v, want < %v", p.interval(100, 10), p.interval(100, 1))
	}
}

func TestStabilityPolicyNextNewCard(t *testing.T) {
	p := testStabilityPolicy()
	c := NewCard("n", t0)
	c.Stability = 0
	days, err := p.Next(&c, Good, 0)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	assertFloat(t, "Stability", c.Stability, DefaultWeights[2])
	assertFloat(t, "Difficulty", c.Difficulty, 1)
	assertFloat(t, "days", days, 1)
}

func TestStabilityPolicyNextNaN(t *testing.T) {
	p := testStabilityPolicy()
	c := reviewCard()
	c.Stability = math.NaN()
	if _, err := p.Next(&c, Hard, 5); err == nil {
		t.Error("Next with NaN stability should fault")
	}
}

func TestStabilityPolicyPriority(t *testing.T) {
	p := testStabilityPolicy()
	fresh := NewCard("a", t0)
	if got := p.Priority(fresh, t0); got != 0 {
		t.Errorf("Priority(new) = %f, want 0", got)
	}
	c := reviewCard()
	early := p.Priority(c, t0)
	late := p.Priority(c, t0.Add(10*24*time.Hour))
	if late >= early {
		t.Errorf("Priority should fall with elapsed time: early=%f late=%f", early, late)
	}
}

func TestClampS(t *testing.T) {
	assertFloat(t, "clampS(0)", clampS(0, MaxStability), MinStability)
	assertFloat(t, "clampS(5)", clampS(5, MaxStability), 5)
	assertFloat(t, "clampS(1e9)", clampS(1e9, MaxStability), MaxStability)
}

func TestClampD(t *testing.T) {
	assertFloat(t, "clampD(-3)", clampD(-3), 1)
	assertFloat(t, "clampD(5)", clampD(5), 5)
	assertFloat(t, "clampD(11)", clampD(11), 10)
}
