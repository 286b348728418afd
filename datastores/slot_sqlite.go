package datastores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteSlot implements [Slot] as one row of the slots table in a SQLite database.
type SQLiteSlot struct {
	db  *sql.DB
	key string
}

var _ Slot = (*SQLiteSlot)(nil)

// OpenSQLiteSlot opens (creating if needed) the database at path
// and returns the slot stored under key.
func OpenSQLiteSlot(ctx context.Context, path, key string) (*SQLiteSlot, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite slot: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite slot: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS slots (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite slot: create table: %w", err)
	}

	return &SQLiteSlot{db: db, key: key}, nil
}

func (s *SQLiteSlot) Read(ctx context.Context) ([]byte, error) {
	var b []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, s.key).Scan(&b)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrSlotEmpty
	case err != nil:
		return nil, fmt.Errorf("sqlite slot: read: %w", err)
	}
	return b, nil
}

func (s *SQLiteSlot) Write(ctx context.Context, b []byte) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, b, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite slot: write: %w", err)
	}
	return nil
}

func (s *SQLiteSlot) Close() error { return s.db.Close() }
