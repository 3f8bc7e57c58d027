// Package sqlite persists key/value pairs in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"fincontrol/internal/log"
	"fincontrol/internal/storage"
)

type Store struct {
	db       *sql.DB
	maxBytes int
}

// New opens (or creates) the database at dbPath and applies pending
// migrations. maxBytes caps the size of a single value; zero means unlimited.
func New(dbPath string, maxBytes int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer keeps the upsert and the quota check consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db, maxBytes: maxBytes}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value and bumps the key's revision, which counts writes.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s.maxBytes > 0 && len(value) > s.maxBytes {
		return fmt.Errorf("set %q (%d bytes): %w", key, len(value), storage.ErrQuotaExceeded)
	}
	var revision int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			revision = kv.revision + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING revision`, key, value).Scan(&revision)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	slog.DebugContext(ctx, "Value stored in SQLite",
		log.FieldComponent, log.ComponentStorage, "key", key, "bytes", len(value), "revision", revision)
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ storage.KV = (*Store)(nil)
