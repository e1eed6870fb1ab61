package recall

import (
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	want := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2025-06-15T10:00:00Z",
		"2025-06-15T10:00:00.000Z",
		"2025-06-15 10:00:00",
		"2025-06-15T10:00:00",
		" 2025-06-15T12:00:00+02:00 ",
	} {
		got, err := ParseTime(in)
		if err != nil {
			t.Fatalf("ParseTime(%q): %v", in, err)
		}
		if !got.Equal(want) {
			t.Errorf("ParseTime(%q) = %v, want %v", in, got, want)
		}
	}

	got, err := ParseTime("2025-06-15")
	if err != nil || !got.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseTime(date) = %v, %v", got, err)
	}
}

func TestParseTimeInvalid(t *testing.T) {
	for _, in := range []string{"", "yesterday", "15/06/2025"} {
		if _, err := ParseTime(in); err == nil {
			t.Errorf("ParseTime(%q) should fail", in)
		}
	}
}
