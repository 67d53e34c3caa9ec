// Package api serves the catalog over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/forgeevents/eventcatalog/internal/catalog"
)

// Store is the read side of the catalog.
type Store interface {
	Releases(ctx context.Context) ([]catalog.ReleaseInfo, error)
	HasProduction(ctx context.Context, rel string) (bool, error)
	Records(ctx context.Context, rel string, view catalog.View) ([]catalog.EventRecord, error)
}

// Options configures the router.
type Options struct {
	Logger *zap.Logger
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// NewRouter builds the HTTP handler:
//
//	GET /healthz
//	GET /releases
//	GET /releases/{release}/events?view=production|staging
//	GET /releases/{release}/events/{name}?view=production|staging
//	GET /metrics
func NewRouter(store Store, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(logger))
	r.Use(recovery(logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, http.StatusNotFound, "not_found", "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, http.StatusMethodNotAllowed, "method_not_allowed", "the catalog is read-only")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/releases", func(r chi.Router) {
		r.Get("/", h.listReleases)
		r.Get("/{release}/events", h.listEvents)
		r.Get("/{release}/events/{name}", h.getEvent)
	})
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
