package recall

import "time"

// Stats is a read-only rollup over a card collection.
type Stats struct {
	Total    int `json:"total"`
	Due      int `json:"due"`
	New      int `json:"new"`
	Learning int `json:"learning"` // Learning and Relearning
	Review   int `json:"review"`
	Mastered int `json:"mastered"`
	Studied  int `json:"studied"` // reviewed at least once

	// Grades tallies each card's most recent grade.
	Grades map[Grade]int `json:"grades"`
}

// Aggregate recomputes Stats from the full collection. It never mutates
// the cards and holds no state between calls.
func (s *Scheduler) Aggregate(cards []Card, now time.Time) Stats {
	st := Stats{
		Total:  len(cards),
		Grades: make(map[Grade]int, len(Grades)),
	}
	for _, g := range Grades {
		st.Grades[g] = 0
	}

	for _, c := range cards {
		if s.IsDue(c, now) {
			st.Due++
		}
		switch c.State {
		case New:
			st.New++
		case Learning, Relearning:
			st.Learning++
		case Review:
			st.Review++
		}
		if s.Mastered(c) {
			st.Mastered++
		}
		if c.Reviewed() {
			st.Studied++
		}
		if c.LastGrade.IsValid() {
			st.Grades[c.LastGrade]++
		}
	}
	return st
}
