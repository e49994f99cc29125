package marketplace

import (
	"log/slog"

	"github.com/udyami/marketplace/internal/modules/marketplace/application"
	"github.com/udyami/marketplace/internal/modules/marketplace/infrastructure/local"
	"github.com/udyami/marketplace/internal/modules/marketplace/infrastructure/remote"
	marketplace_http "github.com/udyami/marketplace/internal/modules/marketplace/interfaces/http"
	"github.com/udyami/marketplace/internal/shared/infrastructure/config"
	"github.com/udyami/marketplace/internal/shared/infrastructure/kv"
)

// Module wires the local store, the backend adapter and the hybrid coordinator.
type Module struct {
	local       *local.Store
	remote      *remote.Client
	coordinator *application.Coordinator
	logger      *slog.Logger
}

func NewModule(storage kv.Storage, cfg config.RemoteConfig, logger *slog.Logger) *Module {
	if logger == nil {
		logger = slog.Default()
	}
	localStore := local.NewStore(storage, logger)

	var remoteClient *remote.Client
	var remoteStore application.RemoteStore
	if !cfg.ForceLocal {
		remoteClient = remote.NewClient(cfg.BaseURL, cfg.Timeout, logger)
		remoteStore = remoteClient
	}

	return &Module{
		local:       localStore,
		remote:      remoteClient,
		coordinator: application.NewCoordinator(remoteStore, localStore, logger),
		logger:      logger,
	}
}

// Coordinator is the store the rest of the application talks to.
func (m *Module) Coordinator() *application.Coordinator {
	return m.coordinator
}

func (m *Module) LocalStore() *local.Store {
	return m.local
}

// HTTPHandler serves the marketplace API over the coordinator.
func (m *Module) HTTPHandler(opts ...marketplace_http.Option) *marketplace_http.Handler {
	opts = append([]marketplace_http.Option{marketplace_http.WithStatus(m.coordinator)}, opts...)
	return marketplace_http.NewHandler(m.coordinator, m.logger, opts...)
}
