package store

import (
	"fmt"
	"log/slog"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Open creates the named backend. For sqlite, path is the database file;
// for badger, the database directory. An empty path lives under dir.
func Open(backend, path, dir string, logger *slog.Logger) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendSQLite, "":
		if path == "" {
			path = filepath.Join(dir, "recall.db")
		}
		return OpenSQLite(path)
	case BackendBadger:
		if path == "" {
			path = filepath.Join(dir, "badger")
		}
		return OpenBadger(BadgerConfig{Path: path, Logger: logger})
	default:
		return nil, fmt.Errorf("store: unknown backend %q (choose memory, sqlite or badger)", backend)
	}
}
