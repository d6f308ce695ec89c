// Package routes holds the self-registering route table. Each route file
// registers itself from init() into one of three groups, and the server
// mounts every group behind its own guard.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
)

type Registrar func(r chi.Router, d deps.Deps)

type Middleware = func(http.Handler) http.Handler

// Group selects the guard a route is mounted behind.
type Group int

const (
	// Public routes are unguarded (liveness).
	Public Group = iota
	// API routes are rate limited and carry the caller identity.
	API
	// Admin routes are restricted to allowed client addresses.
	Admin
)

var mountOrder = []Group{Public, API, Admin}

func (g Group) String() string {
	switch g {
	case Public:
		return "public"
	case API:
		return "api"
	case Admin:
		return "admin"
	}
	return "unknown"
}

var registry = map[Group][]Registrar{}

// Register adds reg to group g. Call from init().
func Register(g Group, reg Registrar) {
	registry[g] = append(registry[g], reg)
}

// RegisterAll mounts each group in a chi.Group behind guards[g]. Groups
// without a guard are mounted bare. Called once from the server.
func RegisterAll(r chi.Router, d deps.Deps, guards map[Group]Middleware) {
	for _, g := range mountOrder {
		regs := registry[g]
		if len(regs) == 0 {
			continue
		}
		guard := guards[g]
		r.Group(func(sub chi.Router) {
			if guard != nil {
				sub.Use(guard)
			}
			for _, reg := range regs {
				reg(sub, d)
			}
		})
		d.Logger.Debugf("routes: mounted %d %s registrars", len(regs), g)
	}
}
