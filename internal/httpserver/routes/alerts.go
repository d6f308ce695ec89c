package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkus/internal/httpserver/handlers"
)

func init() { Register(API, registerAlerts) }

func registerAlerts(r chi.Router, d deps.Deps) {
	r.Get("/api/alerts", handlers.Alerts(d))
	r.Get("/api/alerts/status", handlers.AlertStatus(d))
}
