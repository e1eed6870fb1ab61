// Package session runs a study session: a priority-ordered pool of due cards
// that shrinks as the learner grades them.
//
// A Session owns a private copy of the card collection for its lifetime.
// Every grade event is committed to that copy before the pool is touched, so
// Cards and Stats always reflect the latest scheduling state.
package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"slices"
	"time"

	"github.com/sky-flux/recall"
)

var (
	ErrDuplicateCard = errors.New("session: duplicate card id")
	ErrEmptyCardID   = errors.New("session: card has empty id")
)

// Config controls pool construction and requeue placement.
type Config struct {
	Seed      int64 `json:"seed" yaml:"seed"`             // jitter stream seed
	MinOffset int   `json:"min_offset" yaml:"min_offset"` // zero → 2
	MaxJitter int   `json:"max_jitter" yaml:"max_jitter"` // zero → 2; negative disables jitter
	Limit     int   `json:"limit" yaml:"limit"`           // zero → no cap on the initial pool
}

const (
	defaultMinOffset = 2
	defaultMaxJitter = 2
)

// Option customizes a Session.
type Option func(*Session)

// WithRand replaces the seeded jitter stream.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Result describes the outcome of one grade event.
type Result struct {
	Card recall.Card
	Log  recall.ReviewLog

	// Applied is false when the event had no effect: the card was not in
	// the pool, or the pool was already empty.
	Applied bool

	// Requeued reports the card went back into the pool at Position.
	// Otherwise Position is -1.
	Requeued bool
	Position int

	// Retired reports the card crossed the policy's mastery threshold and
	// left the pool for the rest of the session.
	Retired bool

	// SessionOver is set on the single event that empties the pool.
	SessionOver bool
}

// Session is not safe for concurrent use.
type Session struct {
	sched  *recall.Scheduler
	cfg    Config
	rng    *rand.Rand
	logger *slog.Logger

	cards   []recall.Card
	byID    map[string]int
	pool    []string
	started bool
	over    bool
}

// New creates a session bound to a scheduler. Call Start to build the pool.
func New(sched *recall.Scheduler, cfg Config, opts ...Option) *Session {
	if cfg.MinOffset <= 0 {
		cfg.MinOffset = defaultMinOffset
	}
	if cfg.MaxJitter == 0 {
		cfg.MaxJitter = defaultMaxJitter
	}
	s := &Session{
		sched: sched,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Start copies the collection, selects the due cards and orders them by the
// scheduler's priority key, lowest first. Mastered cards whose due date has
// not arrived stay out of the pool. Start resets any previous session state
// and returns a snapshot of the pool.
func (s *Session) Start(cards []recall.Card, now time.Time) ([]recall.Card, error) {
	byID := make(map[string]int, len(cards))
	copied := make([]recall.Card, len(cards))
	for i, c := range cards {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: index %d", ErrEmptyCardID, i)
		}
		if _, dup := byID[c.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCard, c.ID)
		}
		byID[c.ID] = i
		copied[i] = c.Clone()
	}

	type entry struct {
		id       string
		priority float64
	}
	var due []entry
	for _, c := range copied {
		if !s.sched.IsDue(c, now) {
			continue
		}
		if s.sched.Mastered(c) && now.Before(c.Due) {
			continue
		}
		due = append(due, entry{id: c.ID, priority: s.sched.Priority(c, now)})
	}
	slices.SortStableFunc(due, func(a, b entry) int {
		switch {
		case a.priority < b.priority:
			return -1
		case a.priority > b.priority:
			return 1
		}
		return 0
	})
	if s.cfg.Limit > 0 && len(due) > s.cfg.Limit {
		due = due[:s.cfg.Limit]
	}

	s.cards = copied
	s.byID = byID
	s.pool = make([]string, len(due))
	for i, e := range due {
		s.pool[i] = e.id
	}
	s.started = true
	s.over = len(s.pool) == 0

	poolSize.Set(float64(len(s.pool)))
	s.logger.Info("session started",
		"cards", len(cards),
		"pool", len(s.pool),
		"policy", s.sched.Policy().Kind().String(),
	)
	return s.Pool(), nil
}

// GradeCurrent grades the card at the head of the pool.
func (s *Session) GradeCurrent(grade recall.Grade, now time.Time) (Result, error) {
	if !grade.IsValid() {
		return Result{}, fmt.Errorf("%w: %d", recall.ErrInvalidGrade, int(grade))
	}
	if len(s.pool) == 0 {
		return Result{Position: -1}, nil
	}
	return s.GradeCard(s.pool[0], grade, now)
}

// GradeCard grades the card with the given id wherever it sits in the pool.
//
// The card is rescheduled and committed to the session collection, then
// removed from the pool. Retired cards stay out. Again and Hard put the card
// back at min(index+MinOffset+jitter, len). Good and Easy put it at the end
// only if it is still due. The other cards keep their relative order: the
// pool is ordered by priority once, at Start, and never re-sorted, since a
// re-sort would move a requeued card away from its offset.
//
// A card that is not in the pool is a no-op (Applied false), not an error.
func (s *Session) GradeCard(id string, grade recall.Grade, now time.Time) (Result, error) {
	if !grade.IsValid() {
		return Result{}, fmt.Errorf("%w: %d", recall.ErrInvalidGrade, int(grade))
	}
	idx := slices.Index(s.pool, id)
	if idx < 0 {
		s.logger.Debug("grade ignored for card outside the pool", "card_id", id)
		return Result{Position: -1}, nil
	}

	ci := s.byID[id]
	updated, log, err := s.sched.ReviewCard(s.cards[ci], grade, now)
	if err != nil {
		return Result{}, err
	}
	s.cards[ci] = updated

	res := Result{Card: updated, Log: log, Applied: true, Position: -1}
	remainder := slices.Delete(slices.Clone(s.pool), idx, idx+1)

	switch {
	case s.sched.Mastered(updated):
		res.Retired = true
		retirements.Inc()
	case grade == recall.Again || grade == recall.Hard:
		pos := min(idx+s.cfg.MinOffset+s.jitter(), len(remainder))
		remainder = slices.Insert(remainder, pos, id)
		res.Requeued, res.Position = true, pos
	case s.sched.IsDue(updated, now):
		remainder = append(remainder, id)
		res.Requeued, res.Position = true, len(remainder)-1
	}
	s.pool = remainder

	gradesTotal.WithLabelValues(s.sched.Policy().Kind().String(), grade.String()).Inc()
	if res.Requeued {
		requeues.Inc()
	}
	if log.Fallback {
		fallbacks.Inc()
	}
	poolSize.Set(float64(len(s.pool)))

	if len(s.pool) == 0 && !s.over {
		s.over = true
		res.SessionOver = true
		completed.Inc()
		s.logger.Info("session complete", "cards", len(s.cards))
	}

	s.logger.Debug("card graded",
		"card_id", id,
		"grade", grade.String(),
		"requeued", res.Requeued,
		"position", res.Position,
		"retired", res.Retired,
		"pool", len(s.pool),
	)
	return res, nil
}

func (s *Session) jitter() int {
	if s.cfg.MaxJitter <= 0 {
		return 0
	}
	return s.rng.Intn(s.cfg.MaxJitter + 1)
}

// Current returns the card at the head of the pool.
func (s *Session) Current() (recall.Card, bool) {
	if len(s.pool) == 0 {
		return recall.Card{}, false
	}
	return s.cards[s.byID[s.pool[0]]].Clone(), true
}

// Pool returns a snapshot of the pool in order.
func (s *Session) Pool() []recall.Card {
	out := make([]recall.Card, len(s.pool))
	for i, id := range s.pool {
		out[i] = s.cards[s.byID[id]].Clone()
	}
	return out
}

// Len returns the number of cards left in the pool.
func (s *Session) Len() int { return len(s.pool) }

// Done reports whether a started session has an empty pool.
func (s *Session) Done() bool { return s.started && len(s.pool) == 0 }

// Cards returns a copy of the session's collection, including every
// committed update.
func (s *Session) Cards() []recall.Card {
	out := make([]recall.Card, len(s.cards))
	for i, c := range s.cards {
		out[i] = c.Clone()
	}
	return out
}

// Stats recomputes collection stats over the session's copy.
func (s *Session) Stats(now time.Time) recall.Stats {
	return s.sched.Aggregate(s.cards, now)
}
