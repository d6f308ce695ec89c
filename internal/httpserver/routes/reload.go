package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkus/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/linkus/internal/httpserver/mw"
)

func init() { Register(Admin, registerReload) }

// Reload also checks the Host header: it is the only state-changing route.
func registerReload(r chi.Router, d deps.Deps) {
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/reload", handlers.Reload(d))
}
