package httpapi

import (
	stdhttp "net/http"

	"runner/internal/http/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *handlers.App) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/run", app.JobsRun)
	})

	// Stored artifacts behind signed URLs.
	r.Get("/media/*", app.MediaGet)

	return r
}
