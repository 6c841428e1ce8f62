package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"converthub/internal/http/handlers"
	"converthub/internal/middleware"
)

func NewRouter(app *handlers.App, logger zerolog.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer, middleware.Logger(logger))

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		// the progress feed is open to any subscriber; it carries every
		// job's events and clients filter by jobId
		r.Get("/progress", app.ProgressFeed)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity)

			r.Post("/convert", app.Convert)
			r.Get("/conversions/{id}", app.GetConversion)
			r.Get("/download/{id}", app.Download)
			r.Get("/recent-conversions", app.RecentConversions)
			r.Get("/stats", app.Stats)
		})
	})

	return r
}
