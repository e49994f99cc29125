package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/udyami/marketplace/internal/gateway/middleware"
	notification_http "github.com/udyami/marketplace/internal/modules/notification/interfaces/http"
)

// APIPrefix is where the marketplace API is mounted.
const APIPrefix = "/api"

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	Marketplace         http.Handler
	NotificationHandler *notification_http.NotificationHandler
	AllowedOrigins      string
}

// SetupRoutes creates and configures all application routes
func SetupRoutes(config RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	// Health Check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus Metrics Endpoint
	mux.Handle("GET /metrics", promhttp.Handler())

	if config.Marketplace != nil {
		mux.Handle(APIPrefix+"/", http.StripPrefix(APIPrefix, config.Marketplace))
	}

	// Notification feed and /ws
	if config.NotificationHandler != nil {
		config.NotificationHandler.Register(mux)
	}

	return mux
}

// NewHandler wraps the routes with CORS and request metrics.
func NewHandler(config RouterConfig) http.Handler {
	return middleware.PrometheusMiddleware(middleware.CORSMiddleware(SetupRoutes(config), config.AllowedOrigins))
}
