package migration_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udyami/marketplace/pkg/migration"
)

func writeMigrations(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_create_kv_store.up.sql"),
		[]byte("CREATE TABLE kv_store (collection TEXT PRIMARY KEY, payload TEXT NOT NULL, updated_at TIMESTAMP NOT NULL);"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_create_kv_store.down.sql"),
		[]byte("DROP TABLE kv_store;"), 0o644))
	return dir
}

func TestNewRunner_DefaultLogger(t *testing.T) {
	r := migration.NewRunner(&migration.Config{
		MigrationsPath: "migrations",
		DatabaseURL:    "postgres://invalid",
	})
	require.NotNil(t, r)
}

func TestRunnerMethods_InvalidConfig(t *testing.T) {
	r := migration.NewRunner(&migration.Config{
		MigrationsPath: "migrations",
		DatabaseURL:    "bad://url",
		Logger:         slog.Default(),
	})

	assert.Error(t, r.Up())
	assert.Error(t, r.Down())
	assert.Error(t, r.Force(1))
	_, _, err := r.Version()
	assert.Error(t, err)
}

func TestRunner_UnsupportedDriver(t *testing.T) {
	r := migration.NewRunner(&migration.Config{Driver: "mysql", DatabaseURL: "x", MigrationsPath: "migrations"})
	_, _, err := r.Version()
	assert.Error(t, err)
}

func TestRunner_SQLiteUpAndDown(t *testing.T) {
	dir := writeMigrations(t)
	dbPath := filepath.Join(t.TempDir(), "backend.db")

	r := migration.NewRunner(&migration.Config{
		MigrationsPath: dir,
		DatabaseURL:    dbPath,
		Driver:         migration.DriverSQLite,
		Logger:         slog.Default(),
	})

	version, dirty, err := r.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, r.Up())
	require.NoError(t, r.Up())

	version, _, err = r.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	db, err := sqlx.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()
	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM kv_store`))
	assert.Zero(t, count)

	require.NoError(t, r.Down())
	version, _, err = r.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestAutoMigrate_SQLite(t *testing.T) {
	dir := writeMigrations(t)
	dbPath := filepath.Join(t.TempDir(), "auto.db")

	require.NoError(t, migration.AutoMigrate(migration.DriverSQLite, dbPath, "file://"+dir, nil))
	require.NoError(t, migration.AutoMigrate(migration.DriverSQLite, dbPath, dir, nil))

	assert.Error(t, migration.AutoMigrate(migration.DriverPostgres, "bad://url", dir, slog.Default()))
}
