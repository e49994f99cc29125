package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udyami/marketplace/internal/modules/marketplace/domain"
	"github.com/udyami/marketplace/internal/modules/marketplace/infrastructure/remote"
	"github.com/udyami/marketplace/internal/shared/infrastructure/config"
	"github.com/udyami/marketplace/pkg/migration"
)

func TestOpenStorage_SQLiteRunsMigrations(t *testing.T) {
	cfg := config.Load()
	cfg.Backend.Storage = "sqlite"
	cfg.Backend.SQLitePath = filepath.Join(t.TempDir(), "backend.db")
	cfg.Backend.MigrationsPath = "../../migrations"

	storage, closer, err := openStorage(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer closer.Close()

	require.NoError(t, storage.Set(context.Background(), "users", []byte(`[]`)))
	raw, err := storage.Get(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(raw))
}

func TestOpenStorage_Errors(t *testing.T) {
	cfg := config.Load()
	cfg.Backend.Storage = "sqlite"
	cfg.Backend.SQLitePath = filepath.Join(t.TempDir(), "x.db")
	cfg.Backend.MigrationsPath = filepath.Join(t.TempDir(), "missing")
	_, _, err := openStorage(context.Background(), cfg, slog.Default())
	assert.Error(t, err)

	cfg.Backend.Storage = "dynamo"
	_, _, err = openStorage(context.Background(), cfg, slog.Default())
	assert.Error(t, err)
}

// The remote adapter and the backend handler speak the same contract.
func TestBackend_ServesRemoteClient(t *testing.T) {
	cfg := config.Load()
	cfg.Backend.Storage = "memory"

	storage, closer, err := openStorage(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer closer.Close()

	srv := httptest.NewServer(newHandler(storage, cfg, slog.Default()))
	defer srv.Close()

	client := remote.NewClient(srv.URL+"/api", 2*time.Second, slog.Default())
	ctx := context.Background()
	require.NoError(t, client.HealthCheck(ctx))

	id, err := client.CreateUser(ctx, domain.User{PhoneNumber: "919800000000", Name: "Asha", Role: domain.RoleBuyer})
	require.NoError(t, err)

	u, err := client.UserByPhone(ctx, "919800000000")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, err = client.UserByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRunMigration_Commands(t *testing.T) {
	cfg := config.Load()
	cfg.Backend.Storage = "sqlite"
	cfg.Backend.SQLitePath = filepath.Join(t.TempDir(), "backend.db")
	cfg.Backend.MigrationsPath = "../../migrations"
	logger := slog.Default()

	version := func() (uint, bool) {
		t.Helper()
		v, dirty, err := migration.NewRunner(&migration.Config{
			MigrationsPath: cfg.Backend.MigrationsPath,
			DatabaseURL:    cfg.Backend.SQLitePath,
			Driver:         migration.DriverSQLite,
			Logger:         logger,
		}).Version()
		require.NoError(t, err)
		return v, dirty
	}

	require.NoError(t, runMigration(cfg, "up", -1, logger))
	v, _ := version()
	assert.Equal(t, uint(1), v)
	require.NoError(t, runMigration(cfg, "version", -1, logger))

	require.NoError(t, runMigration(cfg, "down", -1, logger))
	v, _ = version()
	assert.Equal(t, uint(0), v)

	require.NoError(t, runMigration(cfg, "force", 1, logger))
	v, dirty := version()
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)

	assert.Error(t, runMigration(cfg, "force", -1, logger))
	assert.Error(t, runMigration(cfg, "sideways", -1, logger))

	cfg.Backend.Storage = "memory"
	assert.Error(t, runMigration(cfg, "up", -1, logger))
}
