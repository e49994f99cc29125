// Command backend serves the marketplace API that the app's remote store
// talks to, persisted in PostgreSQL (or SQLite, redis, memory for development).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/udyami/marketplace/internal/gateway"
	"github.com/udyami/marketplace/internal/modules/marketplace/infrastructure/local"
	marketplace_http "github.com/udyami/marketplace/internal/modules/marketplace/interfaces/http"
	"github.com/udyami/marketplace/internal/shared/infrastructure/config"
	"github.com/udyami/marketplace/internal/shared/infrastructure/database"
	"github.com/udyami/marketplace/internal/shared/infrastructure/kv"
	"github.com/udyami/marketplace/pkg/migration"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, version, force) and exit")
	forceVersion := flag.Int("force-version", -1, "version to record for -migrate force")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}

	if *migrateCmd != "" {
		if err := runMigration(cfg, *migrateCmd, *forceVersion, logger); err != nil {
			logger.Error("migration command failed", "command", *migrateCmd, "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closer, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("opening backend storage", "storage", cfg.Backend.Storage, "error", err)
		os.Exit(1)
	}
	defer closer.Close()

	server := gateway.NewServer(cfg.Backend.Port, newHandler(storage, cfg, logger), logger)
	if err := server.Start(ctx); err != nil {
		logger.Error("backend exited", "error", err)
		os.Exit(1)
	}
}

// openStorage connects the configured database and brings its schema up to date.
func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (kv.Storage, io.Closer, error) {
	switch cfg.Backend.Storage {
	case migration.DriverPostgres:
		db, err := database.NewPostgresDB(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := migration.AutoMigrate(migration.DriverPostgres, cfg.Database.URL(), cfg.Backend.MigrationsPath, logger); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrating postgres: %w", err)
		}
		logger.Info("database connected", "driver", "postgres", "host", cfg.Database.Host)
		return kv.NewSQLStorage(db), db, nil

	case migration.DriverSQLite:
		if err := migration.AutoMigrate(migration.DriverSQLite, cfg.Backend.SQLitePath, cfg.Backend.MigrationsPath, logger); err != nil {
			return nil, nil, fmt.Errorf("migrating sqlite: %w", err)
		}
		db, err := database.NewSQLiteDB(cfg.Backend.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return kv.NewSQLStorage(db), db, nil

	default:
		return kv.Open(ctx, config.LocalStoreConfig{
			Driver:      cfg.Backend.Storage,
			RedisPrefix: "udyami-backend:",
		}, cfg.Redis)
	}
}

// runMigration runs one manual migration command against the configured
// SQL storage.
func runMigration(cfg config.Config, command string, forceVersion int, logger *slog.Logger) error {
	var dbURL string
	switch cfg.Backend.Storage {
	case migration.DriverPostgres:
		dbURL = cfg.Database.URL()
	case migration.DriverSQLite:
		dbURL = cfg.Backend.SQLitePath
	default:
		return fmt.Errorf("storage %q has no migrations", cfg.Backend.Storage)
	}

	runner := migration.NewRunner(&migration.Config{
		MigrationsPath: cfg.Backend.MigrationsPath,
		DatabaseURL:    dbURL,
		Driver:         cfg.Backend.Storage,
		Logger:         logger,
	})

	switch command {
	case "up":
		return runner.Up()
	case "down":
		return runner.Down()
	case "force":
		if forceVersion < 0 {
			return fmt.Errorf("-migrate force needs -force-version")
		}
		return runner.Force(forceVersion)
	case "version":
		version, dirty, err := runner.Version()
		if err != nil {
			return err
		}
		logger.Info("migration version", "version", version, "dirty", dirty)
		return nil
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}

func newHandler(storage kv.Storage, cfg config.Config, logger *slog.Logger) http.Handler {
	store := local.NewStore(storage, logger)
	return gateway.NewHandler(gateway.RouterConfig{
		Marketplace:    marketplace_http.NewHandler(store, logger).Routes(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
}
