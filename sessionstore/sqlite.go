package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	rojifi "github.com/AntimonyIQ/rojifiadmin-sub001"
)

const schema = `
CREATE TABLE IF NOT EXISTS session (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    device_id TEXT NOT NULL,
    secret_key BLOB,
    token TEXT NOT NULL DEFAULT '',
    expires_at INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

// SQLiteStore keeps the session in a single-row SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at dataSourceName and ensures the
// schema exists. Use ":memory:" for a throwaway store.
func OpenSQLite(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load implements rojifi.SessionStore.
func (s *SQLiteStore) Load(ctx context.Context) (*rojifi.StoredSession, error) {
	var (
		out       rojifi.StoredSession
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT device_id, secret_key, token, expires_at FROM session WHERE id = 1`,
	).Scan(&out.DeviceID, &out.SecretKey, &out.Token, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rojifi.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if expiresAt != 0 {
		out.ExpiresAt = time.Unix(0, expiresAt).UTC()
	}
	return &out, nil
}

// Save implements rojifi.SessionStore.
func (s *SQLiteStore) Save(ctx context.Context, sess *rojifi.StoredSession) error {
	var expiresAt int64
	if !sess.ExpiresAt.IsZero() {
		expiresAt = sess.ExpiresAt.UnixNano()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO session (id, device_id, secret_key, token, expires_at, updated_at)
VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (id) DO UPDATE SET
    device_id = excluded.device_id,
    secret_key = excluded.secret_key,
    token = excluded.token,
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at`,
		sess.DeviceID, sess.SecretKey, sess.Token, expiresAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear implements rojifi.SessionStore.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE session SET secret_key = NULL, token = '', expires_at = 0, updated_at = CURRENT_TIMESTAMP WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
