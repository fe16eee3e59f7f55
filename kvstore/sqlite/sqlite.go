/*
Package sqlite provides the SQLite-backed implementation of kvstore.Store.

PURPOSE:
  The default production store. Two tables: kv (key -> value blob) and
  kv_sets (set name -> member). Deliberately schemaless beyond that -
  all domain records are JSON blobs, matching the opaque-value contract
  of kvstore.Store.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

CONCURRENCY:
  Uses sync.RWMutex on top of SQLite's own locking so concurrent HTTP
  handlers can share one handle safely.

USAGE:
  store, err := sqlite.New("./data/kintai.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - kvstore/store.go: interface definition
  - kvstore/memory: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kensei/kintai-engine/kvstore"
)

// Store implements kvstore.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS kv_sets (
		set_name TEXT NOT NULL,
		member   TEXT NOT NULL,
		PRIMARY KEY (set_name, member)
	);

	CREATE INDEX IF NOT EXISTS idx_kv_sets_name ON kv_sets(set_name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// KV OPERATIONS
// =============================================================================

// Get returns the value for key, or kvstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, kvstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return value, nil
}

// Set writes value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	return err
}

// =============================================================================
// SET OPERATIONS
// =============================================================================

// SAdd adds member to the named set.
func (s *Store) SAdd(ctx context.Context, set, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_sets (set_name, member) VALUES (?, ?)
		ON CONFLICT(set_name, member) DO NOTHING
	`, set, member)
	return err
}

// SRem removes member from the named set.
func (s *Store) SRem(ctx context.Context, set, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM kv_sets WHERE set_name = ? AND member = ?", set, member)
	return err
}

// SMembers returns all members of the named set.
func (s *Store) SMembers(ctx context.Context, set string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT member FROM kv_sets WHERE set_name = ? ORDER BY member", set)
	if err != nil {
		return nil, fmt.Errorf("failed to query set %q: %w", set, err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
