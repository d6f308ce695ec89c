package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkus/internal/httpserver/handlers"
)

func init() { Register(Public, registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/api/health", handlers.Health(d))
}
