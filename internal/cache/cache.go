// Package cache implements the local fallback mirror: a SQLite-backed
// key-value store holding JSON values, the service-side analog of the web
// client's localStorage. Reads and writes are synchronous and always
// available; the remote document store overwrites mirrored values whenever a
// snapshot arrives.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNoSuchKey is returned by Get when a key has never been written.
var ErrNoSuchKey = errors.New("cache: no such key")

// Store is a single-file key-value cache. Safe for concurrent use; SQLite
// serializes writers.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at the given path and enables WAL
// journal mode.
func Open(path string) (*Store, error) {
	// Ensure the parent directory exists to avoid SQLITE_CANTOPEN errors
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    );`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database. Implements io.Closer.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put JSON-encodes v and stores it under key, replacing any previous value.
func (s *Store) Put(key string, v any) error {
	if key == "" {
		return fmt.Errorf("cache key cannot be empty")
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache value: %w", err)
	}
	return nil
}

// Get decodes the value stored under key into out.
// Returns ErrNoSuchKey if the key has never been written.
func (s *Store) Get(key string, out any) error {
	var data string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoSuchKey
	}
	if err != nil {
		return fmt.Errorf("failed to read cache value: %w", err)
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("failed to decode cache value: %w", err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is a no-op.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache value: %w", err)
	}
	return nil
}

// GratitudeKey returns the mirror key for one user's gratitude entries on one
// date. The cache file is shared by every session, so keys carry the user ID;
// the signed-out session mirrors under its own "guest" namespace.
func GratitudeKey(userID, date string) string {
	if userID == "" {
		userID = "guest"
	}
	return "gratitude_" + userID + "_" + date
}
