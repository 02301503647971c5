package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicops/leadwatch/internal/http/handlers"
	httpmiddleware "github.com/clinicops/leadwatch/internal/http/middleware"
	"github.com/clinicops/leadwatch/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	WatchHandler   *handlers.WatchHandler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.WatchHandler != nil {
		r.Route("/api/watch", func(r chi.Router) {
			r.Get("/appointments", cfg.WatchHandler.Snapshot)
			r.Patch("/appointments/{id}", cfg.WatchHandler.UpdateStatus)
			r.Delete("/filters", cfg.WatchHandler.ClearFilters)
		})
	}

	return r
}
