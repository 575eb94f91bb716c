package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds and returns the Chi router with all routes configured.
func NewRouter(handlers *Handlers, cache CachePinger, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/api/v1/health", HealthHandlerFunc(cache, log))

	r.Route("/api/v1/weather", func(r chi.Router) {
		r.Get("/", handlers.GetWeather)
		r.Post("/query", handlers.SubmitQuery)
		r.Get("/icon", handlers.GetIcon)
		r.Get("/events", handlers.Events)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
