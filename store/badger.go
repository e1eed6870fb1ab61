package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/sky-flux/recall"
)

// Key layout:
//
//	card\x00<id>          → Record JSON
//	log\x00<id>\x00<seq>  → ReviewLog JSON, seq big-endian
var (
	cardPrefix = []byte("card\x00")
	logPrefix  = []byte("log\x00")
	logSeqKey  = []byte("seq\x00log")
)

func cardKey(id string) []byte { return append(append([]byte{}, cardPrefix...), id...) }

func logKeyPrefix(id string) []byte {
	k := append(append([]byte{}, logPrefix...), id...)
	return append(k, 0)
}

// BadgerConfig configures a Badger store.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path     string
	InMemory bool
	// Logger receives Badger's internal logs. Nil disables them.
	Logger *slog.Logger
}

// Badger is a Store backed by an embedded BadgerDB.
type Badger struct {
	db  *badger.DB
	seq *badger.Sequence
	now func() time.Time
}

var _ Store = (*Badger)(nil)

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadger opens the database described by cfg.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("store: badger path is required for a persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	seq, err := db.GetSequence(logSeqKey, 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open log sequence: %w", err)
	}
	return &Badger{db: db, seq: seq, now: time.Now}, nil
}

func (b *Badger) Add(_ context.Context, rec *Record) error {
	prepare(rec, b.now())
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode card %s: %w", rec.Card.ID, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		key := cardKey(rec.Card.ID)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, rec.Card.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, val)
	})
}

func getRecord(txn *badger.Txn, id string) (Record, error) {
	item, err := txn.Get(cardKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec, err
}

func (b *Badger) Get(_ context.Context, id string) (Record, error) {
	var rec Record
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getRecord(txn, id)
		return err
	})
	return rec, err
}

func (b *Badger) List(_ context.Context, opts ListOptions) ([]Record, error) {
	var out []Record
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(cardPrefix); it.ValidForPrefix(cardPrefix); it.Next() {
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			if opts.match(rec) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortAndLimit(out, opts.Limit), nil
}

func (b *Badger) UpdateCard(_ context.Context, card recall.Card) error {
	return b.db.Update(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, card.ID)
		if err != nil {
			return err
		}
		rec.Card = card
		rec.UpdatedAt = b.now()
		val, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(cardKey(card.ID), val)
	})
}

func (b *Badger) Delete(_ context.Context, id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := getRecord(txn, id); err != nil {
			return err
		}
		if err := txn.Delete(cardKey(id)); err != nil {
			return err
		}

		prefix := logKeyPrefix(id)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Badger) AppendLog(_ context.Context, log recall.ReviewLog) error {
	val, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode review log: %w", err)
	}
	n, err := b.seq.Next()
	if err != nil {
		return fmt.Errorf("next log sequence: %w", err)
	}
	key := binary.BigEndian.AppendUint64(logKeyPrefix(log.CardID), n)

	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := getRecord(txn, log.CardID); err != nil {
			return err
		}
		return txn.Set(key, val)
	})
}

func (b *Badger) Logs(_ context.Context, cardID string) ([]recall.ReviewLog, error) {
	var out []recall.ReviewLog
	err := b.db.View(func(txn *badger.Txn) error {
		if _, err := getRecord(txn, cardID); err != nil {
			return err
		}
		prefix := logKeyPrefix(cardID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var log recall.ReviewLog
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &log)
			}); err != nil {
				return err
			}
			out = append(out, log)
		}
		return nil
	})
	return out, err
}

// Close releases the log sequence and closes the database.
func (b *Badger) Close() error {
	if err := b.seq.Release(); err != nil {
		b.db.Close()
		return err
	}
	return b.db.Close()
}
