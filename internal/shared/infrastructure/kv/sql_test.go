package kv_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udyami/marketplace/internal/shared/infrastructure/database"
	"github.com/udyami/marketplace/internal/shared/infrastructure/kv"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	// "postgres" selects $n placeholders in Rebind.
	return sqlx.NewDb(sqlDB, "postgres"), mock, func() { _ = sqlDB.Close() }
}

func TestSQLStorage_Get(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	s := kv.NewSQLStorage(db)

	mock.ExpectQuery(`SELECT payload FROM kv_store WHERE collection = \$1`).
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(`[{"id":"u1"}]`))

	got, err := s.Get(context.Background(), "users")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"u1"}]`, string(got))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorage_GetMissing(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	s := kv.NewSQLStorage(db)

	mock.ExpectQuery(`SELECT payload FROM kv_store`).
		WithArgs("users").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "users")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestSQLStorage_GetError(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	s := kv.NewSQLStorage(db)

	mock.ExpectQuery(`SELECT payload FROM kv_store`).
		WithArgs("users").
		WillReturnError(errors.New("connection reset"))

	_, err := s.Get(context.Background(), "users")
	require.Error(t, err)
	assert.NotErrorIs(t, err, kv.ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSQLStorage_SetUpserts(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	s := kv.NewSQLStorage(db)

	mock.ExpectExec(`INSERT INTO kv_store .* ON CONFLICT \(collection\) DO UPDATE SET`).
		WithArgs("jobs", `[]`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(context.Background(), "jobs", []byte(`[]`)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorage_RemoveContinuesPastFailures(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	s := kv.NewSQLStorage(db)

	mock.ExpectExec(`DELETE FROM kv_store`).WithArgs("users").WillReturnError(errors.New("locked"))
	mock.ExpectExec(`DELETE FROM kv_store`).WithArgs("jobs").WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Remove(context.Background(), "users", "jobs")
	require.EqualError(t, err, "removing users: locked")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorage_SQLiteRoundTrip(t *testing.T) {
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	s := kv.NewSQLStorage(db)
	require.NoError(t, s.EnsureSchema(ctx))

	require.NoError(t, s.Set(ctx, "sellers", []byte(`[1]`)))
	require.NoError(t, s.Set(ctx, "sellers", []byte(`[1,2]`)))

	got, err := s.Get(ctx, "sellers")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))

	require.NoError(t, s.Remove(ctx, "sellers"))
	_, err = s.Get(ctx, "sellers")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}
