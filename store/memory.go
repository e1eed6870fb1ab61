package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sky-flux/recall"
)

// Memory is a Store backed by maps. Data is lost on Close.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
	logs    map[string][]recall.ReviewLog
	now     func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]Record),
		logs:    make(map[string][]recall.ReviewLog),
		now:     time.Now,
	}
}

func (m *Memory) Add(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prepare(rec, m.now())
	if _, ok := m.records[rec.Card.ID]; ok {
		return fmt.Errorf("%w: %s", ErrExists, rec.Card.ID)
	}
	stored := *rec
	stored.Card = rec.Card.Clone()
	m.records[rec.Card.ID] = stored
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec.Card = rec.Card.Clone()
	return rec, nil
}

func (m *Memory) List(_ context.Context, opts ListOptions) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for _, rec := range m.records {
		if opts.match(rec) {
			rec.Card = rec.Card.Clone()
			out = append(out, rec)
		}
	}
	return sortAndLimit(out, opts.Limit), nil
}

func (m *Memory) UpdateCard(_ context.Context, card recall.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[card.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, card.ID)
	}
	rec.Card = card.Clone()
	rec.UpdatedAt = m.now()
	m.records[card.ID] = rec
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.records, id)
	delete(m.logs, id)
	return nil
}

func (m *Memory) AppendLog(_ context.Context, log recall.ReviewLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[log.CardID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, log.CardID)
	}
	m.logs[log.CardID] = append(m.logs[log.CardID], log)
	return nil
}

func (m *Memory) Logs(_ context.Context, cardID string) ([]recall.ReviewLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.records[cardID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cardID)
	}
	return append([]recall.ReviewLog(nil), m.logs[cardID]...), nil
}

func (m *Memory) Close() error { return nil }
