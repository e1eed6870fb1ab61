package recall

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestReviewLogJSONRoundTrip(t *testing.T) {
	rl := ReviewLog{
		CardID:        "7",
		Grade:         Hard,
		ReviewedAt:    t0,
		State:         Review,
		ElapsedDays:   2.5,
		ScheduledDays: 9,
		Fallback:      true,
	}
	data, err := json.Marshal(rl)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got ReviewLog
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.CardID != rl.CardID || got.Grade != rl.Grade || got.State != rl.State ||
		got.ScheduledDays != rl.ScheduledDays || !got.Fallback || !got.ReviewedAt.Equal(t0) {
		t.Errorf("round-trip mismatch: got %+v", got)
	}
}

func TestReviewLogJSONShape(t *testing.T) {
	data, err := json.Marshal(ReviewLog{CardID: "1", Grade: Easy, ReviewedAt: t0, State: Learning})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"grade":"easy"`) {
		t.Errorf("grade should be a string, got %s", s)
	}
	if strings.Contains(s, "fallback") {
		t.Errorf("fallback should be omitted when false, got %s", s)
	}
}
