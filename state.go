package recall

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// State represents the learning stage of a card.
type State int

const (
	New        State = iota // Never graded.
	Learning                // In the initial short learning cycle.
	Review                  // Entered the long-term review cycle.
	Relearning              // Lapsed out of Review, relearning.
)

var (
	stateNames  = [...]string{New: "New", Learning: "Learning", Review: "Review", Relearning: "Relearning"}
	stateByName = map[string]State{
		"New":        New,
		"Learning":   Learning,
		"Review":     Review,
		"Relearning": Relearning,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = State(0)
	_ json.Marshaler           = State(0)
	_ json.Unmarshaler         = (*State)(nil)
	_ encoding.TextMarshaler   = State(0)
	_ encoding.TextUnmarshaler = (*State)(nil)
)

func (s State) isValid() bool {
	return s >= New && s <= Relearning
}

// shortCycle reports whether cards in this state are always eligible for review.
func (s State) shortCycle() bool {
	return s == New || s == Learning || s == Relearning
}

// String returns the name of the state ("New", "Learning", "Review", "Relearning").
// For invalid values it returns "State(n)".
func (s State) String() string {
	if s.isValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.isValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	v, ok := stateByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidState, text)
	}
	*s = v
	return nil
}

// MarshalJSON implements json.Marshaler. State serializes as a JSON string.
func (s State) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidState, data)
	}
	return s.UnmarshalText([]byte(str))
}
