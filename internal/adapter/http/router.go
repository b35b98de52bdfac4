package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/bizledger/internal/adapter/http/handler"
	"github.com/iho/bizledger/internal/adapter/http/middleware"
	"github.com/iho/bizledger/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the ops router.
type RouterConfig struct {
	HealthHandler *handler.HealthHandler
	Metrics       *metrics.Metrics    // optional
	Gatherer      prometheus.Gatherer // defaults to prometheus.DefaultGatherer
	Logger        zerolog.Logger
}

// NewRouter creates the ops router: liveness, readiness and Prometheus scraping.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	return r
}
