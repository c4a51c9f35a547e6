// Package store implements the SQLite-backed cache: schema and migrations,
// batched writes under a single transaction, the FTS5 name index, and
// maintenance/health operations. Only the coordinator writes to a Store;
// workers return FileRecords instead of touching the database directly.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/cxxindex/cxxindex/internal/diagnostics"
)

// CurrentSchemaVersion is the schema version this binary requires. Opening
// a database stamped with any other version recreates it from scratch
// (development-mode policy, per the cache's design notes).
const CurrentSchemaVersion = 1

// These constants set withBusyRetry's busy-handler policy: exponential backoff
// starting at 10ms, capped at 1s, with an overall 30s deadline.
const (
	busyInitial  = 10 * time.Millisecond
	busyCeiling  = time.Second
	busyDeadline = 30 * time.Second
)

// Store is one project's open cache database.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the cache directory if needed, opens the database with
// WAL mode, a large page cache, and memory-mapped I/O, and migrates the
// schema to CurrentSchemaVersion — recreating the file if the stored
// version doesn't match.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, diagnostics.Wrap(diagnostics.StoreIO, err, "creating cache directory %s", dir)
	}

	dbPath := filepath.Join(dir, "symbols.db")
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.StoreIO, err, "opening cache database %s", dbPath)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		if rebuildErr := s.recreate(dir); rebuildErr != nil {
			return nil, diagnostics.Wrap(diagnostics.StoreCorrupt, rebuildErr, "recreating cache after schema mismatch")
		}
		db, err = openSQLite(dbPath)
		if err != nil {
			return nil, diagnostics.Wrap(diagnostics.StoreIO, err, "reopening recreated cache database")
		}
		s = &Store{db: db, path: dbPath}
		if err := s.ensureSchema(); err != nil {
			return nil, diagnostics.Wrap(diagnostics.StoreCorrupt, err, "migrating recreated cache")
		}
	}
	return s, nil
}

func openSQLite(dbPath string) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		dbPath, busyDeadline.Milliseconds(),
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // single-writer contract: the coordinator is the only writer

	pragmas := []string{
		"PRAGMA cache_size = -65536",   // ≥64MiB page cache (negative = KiB)
		"PRAGMA mmap_size = 268435456", // ≥256MiB memory-mapped I/O
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "applying %s", p)
		}
	}
	return db, nil
}

// recreate deletes the database files so the next Open starts clean.
func (s *Store) recreate(dir string) error {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(filepath.Join(dir, "symbols.db"+suffix))
	}
	return nil
}

// Close checkpoints the WAL and releases the connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// Path returns the on-disk path of the main database file.
func (s *Store) Path() string { return s.path }

// SetMetadata upserts a `cache_metadata` key/value pair, used for
// bookkeeping entries like `include_dependencies` and
// `indexed_file_count` alongside the reserved `schema_version` key.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO cache_metadata(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return diagnostics.Wrap(diagnostics.StoreIO, err, "setting cache metadata %s", key)
	}
	return nil
}

// GetMetadata reads a `cache_metadata` value, if present.
func (s *Store) GetMetadata(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM cache_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, diagnostics.Wrap(diagnostics.StoreIO, err, "reading cache metadata %s", key)
	}
	return value, true, nil
}

// withBusyRetry runs fn, retrying with exponential backoff on SQLITE_BUSY
// up to busyDeadline, translating a persistent lock into StoreBusy.
func withBusyRetry(ctx context.Context, fn func() error) error {
	deadline := time.Now().Add(busyDeadline)
	wait := busyInitial
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if !isBusyErr(err) || time.Now().After(deadline) {
			if isBusyErr(err) {
				return diagnostics.Wrap(diagnostics.StoreBusy, err, "cache database locked")
			}
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
		if wait > busyCeiling {
			wait = busyCeiling
		}
	}
}

func isBusyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return contains(msg, "SQLITE_BUSY") || contains(msg, "database is locked")
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
