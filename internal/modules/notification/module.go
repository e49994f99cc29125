package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/udyami/marketplace/internal/modules/notification/application"
	"github.com/udyami/marketplace/internal/modules/notification/domain"
	"github.com/udyami/marketplace/internal/modules/notification/infrastructure/persistence/kvstore"
	"github.com/udyami/marketplace/internal/modules/notification/infrastructure/roster"
	"github.com/udyami/marketplace/internal/modules/notification/infrastructure/websocket"
	notification_http "github.com/udyami/marketplace/internal/modules/notification/interfaces/http"
	"github.com/udyami/marketplace/internal/shared/infrastructure/config"
	"github.com/udyami/marketplace/internal/shared/infrastructure/kv"
)

const RosterStore = "store"

type Module struct {
	engine  *application.Engine
	handler *notification_http.NotificationHandler
	hub     *websocket.Hub
	cfg     config.NotificationsConfig
	logger  *slog.Logger

	mu          sync.Mutex
	started     bool
	unsubscribe func()
}

// NewModule builds the engine over storage. Sellers come from source when the
// roster is "store" and source is set, otherwise from the built-in roster.
func NewModule(storage kv.Storage, source roster.SellerSource, cfg config.NotificationsConfig, logger *slog.Logger) *Module {
	if logger == nil {
		logger = slog.Default()
	}

	var sellers domain.SellerDirectory = domain.DefaultRoster()
	if cfg.Roster == RosterStore && source != nil {
		sellers = roster.NewStoreRoster(source)
	}

	opts := []application.Option{application.WithLogger(logger)}
	if cfg.MatchDelay > 0 {
		opts = append(opts, application.WithMatchDelay(cfg.MatchDelay))
	}
	if cfg.PollInterval > 0 {
		opts = append(opts, application.WithPollInterval(cfg.PollInterval))
	}
	if cfg.ReminderAfter > 0 {
		opts = append(opts, application.WithReminderAfter(cfg.ReminderAfter))
	}
	if cfg.ReminderMode != "" {
		opts = append(opts, application.WithReminderMode(application.ReminderMode(cfg.ReminderMode)))
	}

	engine := application.NewEngine(kvstore.NewFeedRepository(storage, logger), sellers, opts...)
	hub := websocket.NewHub(logger)

	return &Module{
		engine:  engine,
		handler: notification_http.NewNotificationHandler(engine, hub, logger),
		hub:     hub,
		cfg:     cfg,
		logger:  logger,
	}
}

func (m *Module) Engine() *application.Engine {
	return m.engine
}

func (m *Module) HTTPHandler() *notification_http.NotificationHandler {
	return m.handler
}

// Start runs the hub, loads the feed and begins polling. Every feed change is
// pushed to websocket clients, filtered per role.
func (m *Module) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true

	go m.hub.Run()
	m.unsubscribe = m.engine.Subscribe(m.push)
	m.engine.Start(ctx)

	if m.cfg.SeedDemoJobs {
		jobs := domain.DemoJobs(time.Now())
		for _, job := range jobs {
			m.engine.TrackJob(job)
		}
		m.logger.Info("seeded demo jobs", "count", len(jobs))
	}
}

func (m *Module) push(feed []domain.Notification) {
	for _, role := range []domain.Role{"", domain.RoleBuyer, domain.RoleSeller} {
		msg, err := notification_http.EncodeFeed(domain.VisibleFeed(feed, role))
		if err != nil {
			m.logger.Error("encoding feed for websocket", "role", role, "error", err)
			continue
		}
		m.hub.SendToRole(role, msg)
	}
}

func (m *Module) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.engine.Stop()
	m.hub.Stop()
}
