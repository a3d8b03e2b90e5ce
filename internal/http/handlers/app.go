package handlers

import (
	"encoding/json"
	"net/http"

	"runner/internal/domain"
	"runner/internal/infra"
	"runner/internal/jobs"
	"runner/internal/storage"
)

// App carries the handler dependencies. Everything is injected so the
// handlers stay testable with fakes.
type App struct {
	Jobs      domain.JobRepository
	Processor *jobs.Processor
	Tasks     *infra.TaskGroup
	Media     *storage.FileStore
	Logger    infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]string{"error": slug, "message": message})
}
