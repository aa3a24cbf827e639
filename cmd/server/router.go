package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"domainagent/internal/assistant/handler"
	"domainagent/internal/platform/config"
	"domainagent/internal/platform/metrics"
	"domainagent/internal/platform/middleware"
	"domainagent/internal/platform/ratelimit"
	"domainagent/pkg/platform/httputil"
	"domainagent/pkg/platform/middleware/metadata"
	"domainagent/pkg/platform/middleware/requesttime"
)

type routerDeps struct {
	cfg       config.Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
	service   handler.Service
	gatherer  prometheus.Gatherer
	readiness func(ctx context.Context) error

	// limiter is nil when rate limiting is disabled.
	limiter ratelimit.Limiter
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.logger))
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.readiness(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(api chi.Router) {
		api.Use(middleware.Logger(d.logger))
		api.Use(middleware.Timeout(d.cfg.Server.RequestTimeout))
		api.Use(middleware.ContentTypeJSON)
		api.Use(middleware.LatencyMiddleware(d.metrics))
		handler.New(d.service, d.logger, d.metrics).Register(api, ratelimit.Middleware(d.limiter, d.logger))
	})
	return r
}
