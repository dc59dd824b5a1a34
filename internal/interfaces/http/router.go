// Package http assembles the HTTP surface of the service: the route tree,
// the middleware chain and the server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/prometheus"
	"github.com/clauselens/clauselens/internal/interfaces/http/handlers"
	"github.com/clauselens/clauselens/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies for the
// route tree.
type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
	HealthHandler   *handlers.HealthHandler

	CORS        *middleware.CORSConfig
	RateLimiter middleware.RateLimiter
	RateLimit   middleware.RateLimitConfig
	Logging     middleware.LoggingConfig

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter builds the complete route tree: public probes and metrics, then
// the /api/v1 document resources behind the middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, cfg.Metrics, cfg.Logging))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerDocumentRoutes(api, cfg.DocumentHandler)
	})

	return r
}

// registerDocumentRoutes mounts the document resources.
func registerDocumentRoutes(r chi.Router, h *handlers.DocumentHandler) {
	if h == nil {
		return
	}
	r.Route("/documents", func(dr chi.Router) {
		dr.Get("/", h.List)
		dr.Post("/", h.Upload)

		dr.Route("/{documentID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Delete("/", h.Delete)

			// Derived insights
			item.Get("/health", h.Health)
			item.Get("/timeline", h.Timeline)
			item.Get("/timeline/calendar", h.TimelineCalendar)
			item.Get("/strategies", h.Strategies)
			item.Get("/benchmark", h.Benchmark)
		})
	})

	r.Get("/uploads/{uploadID}", h.UploadStatus)
	r.Post("/comparisons", h.Compare)
}
