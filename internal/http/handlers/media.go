package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// MediaGet serves a stored artifact after verifying the signature and
// expiry embedded in its signed URL.
func (a *App) MediaGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if strings.TrimSpace(key) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "object key required")
		return
	}
	if err := a.Media.VerifyURL(key, r.URL.Query()); err != nil {
		a.error(w, http.StatusForbidden, "forbidden", "invalid or expired signature")
		return
	}
	http.ServeFile(w, r, filepath.Join(a.Media.BasePath(), filepath.FromSlash(key)))
}
