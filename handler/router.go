package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cityscout-app/cityscout/middleware"
	"github.com/cityscout-app/cityscout/pkg/metrics"
)

// RouterConfig wires the cross-cutting pieces of the HTTP surface.
type RouterConfig struct {
	Logger *slog.Logger

	// Metrics instruments served requests; nil disables instrumentation.
	Metrics *metrics.Metrics

	// Registry backs GET /metrics; nil disables the endpoint.
	Registry *prometheus.Registry

	// Health components checked by GET /healthz.
	Health map[string]Healthchecker
}

// NewRouter assembles the chi router with the standard middleware chain and
// all routes.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	if cfg.Logger != nil {
		r.Use(middleware.Logging(cfg.Logger))
		r.Use(middleware.Recover(cfg.Logger))
	}
	r.Use(countRequests(cfg.Metrics))

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.Chat)
		r.Get("/places/search", h.PlacesSearch)
	})

	r.Get("/healthz", Health(cfg.Health))

	if cfg.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	if sr.status == 0 {
		sr.status = status
	}
	sr.ResponseWriter.WriteHeader(status)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	return sr.ResponseWriter.Write(b)
}

// countRequests records one observation per request labeled with the chi
// route pattern, available once the downstream handler has run.
func countRequests(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sr := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(sr, r)

			if sr.status == 0 {
				sr.status = http.StatusOK
			}
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			m.RequestServed(route, sr.status)
		})
	}
}
