// Package server assembles the HTTP router and runs it.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookbff/internal/httpx"
)

// RouteRegistrar mounts a resource group on a router.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	MaxBodyBytes   int64
	// RateLimiter is optional.
	RateLimiter *httpx.RateLimiter
	// Ready reports readiness; nil means always ready.
	Ready   func() bool
	Metrics http.Handler
	Groups  []RouteRegistrar
}

func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.RecoveryMiddleware(cfg.Logger))
	r.Use(httpx.AccessLogMiddleware(cfg.Logger))
	r.Use(httpx.SecurityHeadersMiddleware)
	r.Use(httpx.CORSMiddleware(cfg.AllowedOrigins))
	if cfg.MaxBodyBytes > 0 {
		r.Use(httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if cfg.Ready != nil && !cfg.Ready() {
			http.Error(w, "broker not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Group(func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(cfg.RateLimiter.Middleware)
		}
		for _, g := range cfg.Groups {
			g.RegisterRoutes(api)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Route isn't found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method isn't allowed", nil)
	})
	return r
}
