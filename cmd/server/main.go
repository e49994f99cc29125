package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/udyami/marketplace/internal/gateway"
	"github.com/udyami/marketplace/internal/modules/filestorage"
	"github.com/udyami/marketplace/internal/modules/marketplace"
	marketplace_domain "github.com/udyami/marketplace/internal/modules/marketplace/domain"
	marketplace_http "github.com/udyami/marketplace/internal/modules/marketplace/interfaces/http"
	"github.com/udyami/marketplace/internal/modules/notification"
	notification_domain "github.com/udyami/marketplace/internal/modules/notification/domain"
	"github.com/udyami/marketplace/internal/shared/infrastructure/config"
	"github.com/udyami/marketplace/internal/shared/infrastructure/kv"
)

const initTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	a.notifications.Start(ctx)
	return gateway.NewServer(cfg.Server.Port, a.handler, logger).Start(ctx)
}

type app struct {
	handler       http.Handler
	marketplace   *marketplace.Module
	notifications *notification.Module
	storage       io.Closer
	logger        *slog.Logger
}

// newApp wires the hybrid store, the notification engine and the gateway.
// Nothing is started except the store probe.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}
	storage, closer, err := kv.Open(ctx, cfg.LocalStore, cfg.Redis)
	if err != nil {
		return nil, err
	}
	logger.Info("local store opened", "driver", cfg.LocalStore.Driver)

	mp := marketplace.NewModule(storage, cfg.Remote, logger)

	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()
	if err := mp.Coordinator().Initialize(initCtx); err != nil {
		logger.Warn("store initialization incomplete", "error", err)
	}
	logger.Info("marketplace store ready", "database", mp.Coordinator().DatabaseStatus())

	nm := notification.NewModule(storage, mp.Coordinator(), cfg.Notifications, logger)

	opts := []marketplace_http.Option{
		marketplace_http.WithJobCreatedHook(func(_ context.Context, job marketplace_domain.Job) {
			nm.Engine().SimulatePostJob(jobSnapshot(job))
		}),
	}
	files, err := filestorage.NewModule(ctx, cfg.FileStorage)
	if err != nil {
		logger.Warn("snapshots disabled", "error", err)
	} else {
		opts = append(opts, marketplace_http.WithSnapshots(files.Snapshots()))
	}

	handler := gateway.NewHandler(gateway.RouterConfig{
		Marketplace:         mp.HTTPHandler(opts...).Routes(),
		NotificationHandler: nm.HTTPHandler(),
		AllowedOrigins:      cfg.Server.AllowedOrigins,
	})

	return &app{
		handler:       handler,
		marketplace:   mp,
		notifications: nm,
		storage:       closer,
		logger:        logger,
	}, nil
}

func (a *app) Close() error {
	a.notifications.Shutdown()
	if err := a.storage.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		a.logger.Error("closing local store", "error", err)
		return err
	}
	return nil
}

func jobSnapshot(job marketplace_domain.Job) notification_domain.JobSnapshot {
	return notification_domain.JobSnapshot{
		ID:          job.ID,
		Title:       job.Title,
		Description: job.Description,
		Skill:       job.Skill,
		BudgetMin:   job.BudgetMin,
		BudgetMax:   job.BudgetMax,
		Timeline:    job.Timeline,
		Location:    job.Location,
		BuyerID:     job.BuyerID,
	}
}
