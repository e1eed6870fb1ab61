package recall

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strings"
)

// Grade represents the learner's assessment of recall quality.
type Grade int

const (
	Again Grade = iota + 1 // Complete failure to recall.
	Hard                   // Recalled with significant difficulty.
	Good                   // Recalled with some effort.
	Easy                   // Recalled effortlessly.
)

// Grades lists every valid grade in ascending order.
var Grades = [...]Grade{Again, Hard, Good, Easy}

var (
	gradeNames  = [...]string{Again: "again", Hard: "hard", Good: "good", Easy: "easy"}
	gradeByName = map[string]Grade{
		"again": Again, "a": Again,
		"hard": Hard, "h": Hard,
		"good": Good, "g": Good,
		"easy": Easy, "e": Easy,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Grade(0)
	_ json.Marshaler           = Grade(0)
	_ json.Unmarshaler         = (*Grade)(nil)
	_ encoding.TextMarshaler   = Grade(0)
	_ encoding.TextUnmarshaler = (*Grade)(nil)
)

// ParseGrade converts "again", "hard", "good" or "easy" (or their first
// letter, in any case) into a Grade.
func ParseGrade(s string) (Grade, error) {
	g, ok := gradeByName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
	return g, nil
}

// String returns the name of the grade ("again", "hard", "good", "easy").
// For invalid values it returns "Grade(n)".
func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// IsValid reports whether g is a valid grade (Again through Easy).
func (g Grade) IsValid() bool {
	return g >= Again && g <= Easy
}

// Recalled reports whether the grade counts as a successful review.
func (g Grade) Recalled() bool {
	return g == Hard || g == Good || g == Easy
}

// MarshalText implements encoding.TextMarshaler.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	return []byte(gradeNames[g]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(text []byte) error {
	v, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// MarshalJSON implements json.Marshaler. Grade serializes as a JSON string.
func (g Grade) MarshalJSON() ([]byte, error) {
	text, err := g.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (g *Grade) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidGrade, data)
	}
	return g.UnmarshalText([]byte(s))
}
