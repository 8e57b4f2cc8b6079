package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS daily_usage (
	user_id TEXT PRIMARY KEY,
	count   INTEGER NOT NULL,
	date    TEXT NOT NULL
);`

// SQLiteStore persists records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create quota directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open quota database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create quota schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, userID string) (Meta, error) {
	var meta Meta
	err := s.db.QueryRowContext(ctx,
		`SELECT count, date FROM daily_usage WHERE user_id = ?`, userID,
	).Scan(&meta.Count, &meta.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, ErrNotFound
	}
	if err != nil {
		return Meta{}, fmt.Errorf("failed to query quota: %w", err)
	}
	return meta, nil
}

func (s *SQLiteStore) Put(ctx context.Context, userID string, meta Meta) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_usage (user_id, count, date) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET count = excluded.count, date = excluded.date`,
		userID, meta.Count, meta.Date)
	if err != nil {
		return fmt.Errorf("failed to upsert quota: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
