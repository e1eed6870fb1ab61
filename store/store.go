// Package store persists cards and review logs between sessions.
//
// The engine never persists anything itself; a Store round-trips the
// scheduling state a Scheduler produces. Three backends share one contract:
// an in-memory map, SQLite and BadgerDB.
package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sky-flux/recall"
)

var (
	ErrNotFound = errors.New("store: card not found")
	ErrExists   = errors.New("store: card already exists")
)

// DeckSeparator joins the levels of a hierarchical deck path.
const DeckSeparator = "::"

// Record is a card with its content and deck.
type Record struct {
	Card      recall.Card `json:"card"`
	Deck      string      `json:"deck"`
	Front     string      `json:"front"`
	Back      string      `json:"back"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// ListOptions filters List results.
type ListOptions struct {
	// Deck limits results to the deck and all of its subdecks.
	Deck string
	// Due keeps only cards whose due date is at or before Now.
	Due bool
	Now time.Time
	// Limit caps the result count; zero means no cap.
	Limit int
}

// Store is the persistence contract shared by every backend.
type Store interface {
	// Add inserts a record. An empty card ID is replaced by a new UUID and
	// the timestamps are set; rec is updated in place.
	Add(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (Record, error)
	// List returns records ordered by due date, then ID.
	List(ctx context.Context, opts ListOptions) ([]Record, error)
	// UpdateCard replaces the scheduling state of an existing record.
	UpdateCard(ctx context.Context, card recall.Card) error
	// Delete removes a record and its review logs.
	Delete(ctx context.Context, id string) error
	AppendLog(ctx context.Context, log recall.ReviewLog) error
	// Logs returns the review logs of a card in the order they were appended.
	Logs(ctx context.Context, cardID string) ([]recall.ReviewLog, error)
	Close() error
}

// InDeck reports whether deck lies within scope. An empty scope matches
// every deck; "lang" matches "lang" and "lang::es" but not "language".
func InDeck(deck, scope string) bool {
	return scope == "" || deck == scope || strings.HasPrefix(deck, scope+DeckSeparator)
}

// prepare fills the ID and timestamps of a new record.
func prepare(rec *Record, now time.Time) {
	if rec.Card.ID == "" {
		rec.Card.ID = uuid.New().String()
	}
	if rec.Card.Due.IsZero() {
		rec.Card.Due = now
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
}

func (o ListOptions) match(rec Record) bool {
	if !InDeck(rec.Deck, o.Deck) {
		return false
	}
	return !o.Due || !rec.Card.Due.After(o.Now)
}

// sortAndLimit orders records by due date then ID and applies the limit.
func sortAndLimit(recs []Record, limit int) []Record {
	slices.SortFunc(recs, func(a, b Record) int {
		if c := a.Card.Due.Compare(b.Card.Due); c != 0 {
			return c
		}
		return strings.Compare(a.Card.ID, b.Card.ID)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// Cards extracts the scheduling state of each record.
func Cards(recs []Record) []recall.Card {
	out := make([]recall.Card, len(recs))
	for i, r := range recs {
		out[i] = r.Card
	}
	return out
}
