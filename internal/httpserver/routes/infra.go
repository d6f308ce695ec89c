package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkus/internal/httpserver/handlers"
)

func init() { Register(Admin, registerInfra) }

func registerInfra(r chi.Router, d deps.Deps) {
	r.Get("/infra", handlers.Infra(d))
	r.Handle("/metrics", handlers.Metrics())
}
