package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"

	"github.com/sky-flux/recall"
)

// sortableTime has a fixed width so that text comparison orders instants.
const sortableTime = "2006-01-02T15:04:05.000000000Z"

func formatSortable(t time.Time) string { return t.UTC().Format(sortableTime) }

// SQLite is a Store backed by a SQLite database. Scheduling state is kept
// as JSON next to indexed due and deck columns.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens or creates the database at path. Use ":memory:" for a
// throwaway database.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	s, err := NewSQLite(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an open database and initializes the schema.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	s := &SQLite{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		deck TEXT NOT NULL,
		front TEXT NOT NULL,
		back TEXT NOT NULL,
		card TEXT NOT NULL,
		due TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS review_logs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		card_id TEXT NOT NULL,
		reviewed_at TEXT NOT NULL,
		log TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cards_due ON cards(due);
	CREATE INDEX IF NOT EXISTS idx_cards_deck ON cards(deck);
	CREATE INDEX IF NOT EXISTS idx_logs_card ON review_logs(card_id);
	`)
	return err
}

func (s *SQLite) Add(ctx context.Context, rec *Record) error {
	prepare(rec, s.now())
	cardJSON, err := json.Marshal(rec.Card)
	if err != nil {
		return fmt.Errorf("encode card %s: %w", rec.Card.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cards (id, deck, front, back, card, due, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Card.ID, rec.Deck, rec.Front, rec.Back, string(cardJSON), formatSortable(rec.Card.Due),
		rec.CreatedAt.Format(time.RFC3339Nano), rec.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrExists, rec.Card.ID)
		}
		return fmt.Errorf("insert card %s: %w", rec.Card.ID, err)
	}
	return nil
}

const selectRecord = `SELECT deck, front, back, card, created_at, updated_at FROM cards`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec                  Record
		cardJSON             string
		createdAt, updatedAt string
	)
	if err := row.Scan(&rec.Deck, &rec.Front, &rec.Back, &cardJSON, &createdAt, &updatedAt); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(cardJSON), &rec.Card); err != nil {
		return Record{}, fmt.Errorf("decode card: %w", err)
	}
	var err error
	if rec.CreatedAt, err = recall.ParseTime(createdAt); err != nil {
		return Record{}, err
	}
	if rec.UpdatedAt, err = recall.ParseTime(updatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get card %s: %w", id, err)
	}
	return rec, nil
}

func (s *SQLite) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	query := selectRecord + ` WHERE 1=1`
	var args []any

	if opts.Deck != "" {
		prefix := opts.Deck + DeckSeparator
		query += ` AND (deck = ? OR substr(deck, 1, ?) = ?)`
		args = append(args, opts.Deck, utf8.RuneCountInString(prefix), prefix)
	}
	if opts.Due {
		query += ` AND due <= ?`
		args = append(args, formatSortable(opts.Now))
	}
	query += ` ORDER BY due ASC, id ASC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) UpdateCard(ctx context.Context, card recall.Card) error {
	cardJSON, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("encode card %s: %w", card.ID, err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE cards SET card = ?, due = ?, updated_at = ? WHERE id = ?
	`, string(cardJSON), formatSortable(card.Due), s.now().Format(time.RFC3339Nano), card.ID)
	if err != nil {
		return fmt.Errorf("update card %s: %w", card.ID, err)
	}
	return expectOne(res, card.ID)
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete card %s: %w", id, err)
	}
	if err := expectOne(res, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM review_logs WHERE card_id = ?`, id); err != nil {
		return fmt.Errorf("delete logs of %s: %w", id, err)
	}
	return tx.Commit()
}

func (s *SQLite) AppendLog(ctx context.Context, log recall.ReviewLog) error {
	logJSON, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode review log: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO review_logs (card_id, reviewed_at, log)
		SELECT ?, ?, ? WHERE EXISTS (SELECT 1 FROM cards WHERE id = ?)
	`, log.CardID, formatSortable(log.ReviewedAt), string(logJSON), log.CardID)
	if err != nil {
		return fmt.Errorf("append review log: %w", err)
	}
	return expectOne(res, log.CardID)
}

func (s *SQLite) Logs(ctx context.Context, cardID string) ([]recall.ReviewLog, error) {
	if _, err := s.Get(ctx, cardID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT log FROM review_logs WHERE card_id = ? ORDER BY seq ASC`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list review logs: %w", err)
	}
	defer rows.Close()

	var out []recall.ReviewLog
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var log recall.ReviewLog
		if err := json.Unmarshal([]byte(raw), &log); err != nil {
			return nil, fmt.Errorf("decode review log: %w", err)
		}
		out = append(out, log)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
