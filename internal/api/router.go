// Package api exposes the order tracker over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/monteirok/popmart-tracker/internal/api/handler"
	"github.com/monteirok/popmart-tracker/internal/api/middleware"
	"github.com/monteirok/popmart-tracker/internal/cache"
	"github.com/monteirok/popmart-tracker/internal/config"
	"github.com/monteirok/popmart-tracker/internal/security"
	"github.com/monteirok/popmart-tracker/internal/state"
	"github.com/monteirok/popmart-tracker/internal/view"
)

const maxBodyBytes = 1 << 20

var quietPaths = []string{"/healthz", "/metrics"}

// Deps carries what the router serves.
type Deps struct {
	Orders    *state.Manager
	Formatter *view.Formatter
	// Cache backs rate limiting and idempotent creates. Nil creates a
	// private in-memory store.
	Cache cache.Store
	// Registry receives HTTP metrics and serves /metrics. Nil disables both.
	Registry *prometheus.Registry
	// Ready probes the store for /healthz; nil always reports ok.
	Ready func(*http.Request) error
}

// NewRouter wires the order API with its middleware stack.
func NewRouter(logger *slog.Logger, deps Deps, cfg config.Config) http.Handler {
	if deps.Orders == nil {
		panic("router requires an order state manager")
	}
	if logger == nil {
		logger = slog.Default()
	}
	store := deps.Cache
	if store == nil {
		store = cache.NewStore(cache.Options{Prefix: "api"})
	}

	r := chi.NewRouter()
	r.Use(
		chiMiddleware.RequestID,
		chiMiddleware.RealIP,
	)

	if cfg.Metrics.Enabled && deps.Registry != nil {
		metrics := middleware.NewMetrics(deps.Registry, middleware.MetricsConfig{
			Namespace: cfg.Metrics.Namespace,
			SkipPaths: quietPaths,
			Buckets:   cfg.Metrics.Buckets,
		})
		r.Use(metrics.Middleware())
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.BodyLimit(maxBodyBytes),
	}
	if cfg.RateLimit.Enabled {
		limiter, err := security.NewRateLimiter(store, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		if err != nil {
			logger.Error("rate limiting disabled", "error", err)
		} else {
			middlewares = append(middlewares, middleware.RateLimit(middleware.RateLimitConfig{
				Limiter:   limiter,
				SkipPaths: quietPaths,
				Logger:    logger,
			}))
		}
	}
	middlewares = append(middlewares,
		middleware.StructuredLogger(middleware.LoggingConfig{
			Logger:        logger,
			SlowThreshold: 500 * time.Millisecond,
			SkipPaths:     quietPaths,
		}),
		chiMiddleware.Recoverer,
		chiMiddleware.Compress(5),
	)
	r.Use(middlewares...)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		body := map[string]any{
			"status": "ok",
			"ts":     time.Now().UTC().Format(time.RFC3339Nano),
		}
		if deps.Ready != nil {
			if err := deps.Ready(req); err != nil {
				body["status"] = "degraded"
				body["error"] = err.Error()
				respondJSON(w, http.StatusServiceUnavailable, body)
				return
			}
		}
		respondJSON(w, http.StatusOK, body)
	})

	if cfg.Metrics.Enabled && deps.Registry != nil {
		metricsHandler := promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})
		if cfg.Metrics.Token != "" {
			r.With(middleware.MetricsGuard(cfg.Metrics.Token)).Handle("/metrics", metricsHandler)
		} else {
			r.Handle("/metrics", metricsHandler)
		}
	}

	orders := handler.NewOrderHandler(deps.Orders, deps.Formatter, store, logger)
	r.Route("/api/orders", orders.Routes)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		logger.Warn("unmapped route hit", "method", req.Method, "path", req.URL.Path)
		http.NotFound(w, req)
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
