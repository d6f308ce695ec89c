package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
)

// Suggestions proxies search completions for ?q=. Always 200 with a list.
func Suggestions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Suggest.Suggest(r.Context(), r.URL.Query().Get("q")))
	}
}
