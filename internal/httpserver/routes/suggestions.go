package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkus/internal/httpserver/handlers"
)

func init() { Register(API, registerSuggestions) }

func registerSuggestions(r chi.Router, d deps.Deps) {
	r.Get("/api/suggestions", handlers.Suggestions(d))
}
