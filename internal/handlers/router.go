package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	custommw "github.com/happyleetw/obsidian-photos-bridge-app/internal/middleware"
)

// NewRouter wires the bridge's route table. Extra middleware (tracing,
// metrics) is appended after the baseline chain.
func NewRouter(
	photos *PhotoHandler,
	assets *AssetHandler,
	exports *ExportHandler,
	health *HealthHandler,
	eventsHandler *EventsHandler,
	extra ...func(http.Handler) http.Handler,
) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(custommw.CORS)
	for _, mw := range extra {
		r.Use(mw)
	}

	r.Get("/api/health", health.HealthCheck)
	r.Get("/api/version", VersionHandler)

	r.Route("/api/photos", func(r chi.Router) {
		r.Get("/", photos.List)
		r.Get("/search", photos.Search)
		r.Get("/date", photos.ByDate)
		r.Get("/{id}/original", assets.Original)
		r.Post("/{id}/export", exports.Export)
	})

	r.Get("/api/thumbnails/{id}", assets.Thumbnail)
	r.Get("/api/events", eventsHandler.HandleConnection)

	return r
}
