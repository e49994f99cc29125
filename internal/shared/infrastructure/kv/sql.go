package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS kv_store (
	collection TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLStorage stores each key as a row of kv_store. The same queries run on
// SQLite and PostgreSQL; placeholders are rebound per driver.
type SQLStorage struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLStorage(db *sqlx.DB) *SQLStorage {
	return &SQLStorage{db: db, now: time.Now}
}

// EnsureSchema creates kv_store when migrations are not in charge of it (SQLite).
func (s *SQLStorage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("creating kv_store: %w", err)
	}
	return nil
}

func (s *SQLStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var payload string
	query := s.db.Rebind(`SELECT payload FROM kv_store WHERE collection = ?`)
	if err := s.db.GetContext(ctx, &payload, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return []byte(payload), nil
}

func (s *SQLStorage) Set(ctx context.Context, key string, value []byte) error {
	query := s.db.Rebind(`
		INSERT INTO kv_store (collection, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (collection) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, query, key, string(value), s.now().UTC()); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Remove deletes every key independently; a failure on one key does not stop the others.
func (s *SQLStorage) Remove(ctx context.Context, keys ...string) error {
	query := s.db.Rebind(`DELETE FROM kv_store WHERE collection = ?`)
	var errs []error
	for _, k := range keys {
		if _, err := s.db.ExecContext(ctx, query, k); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}
