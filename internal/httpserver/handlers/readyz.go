package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready    bool `json:"ready"`
	Services int  `json:"services"`
}

// Readyz reports ready once a dashboard snapshot is installed.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Dashboard.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{
			Ready:    true,
			Services: len(d.Dashboard.Load().Services),
		})
	}
}
