// Package plugins dispatches plugin requests to their fetch routines.
package plugins

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/logger"
	"github.com/MrSnakeDoc/linkus/internal/plugins/arrcalendar"
	"github.com/MrSnakeDoc/linkus/internal/plugins/sabnzbd"
	"github.com/MrSnakeDoc/linkus/internal/upstream"
)

// FetchFunc produces the JSON-serializable payload for one plugin service.
type FetchFunc func(ctx context.Context, svc domain.Service) (any, error)

// Registry maps plugin ids to fetch routines. It is filled at startup and
// read-only afterwards.
type Registry struct {
	fetchers   map[string]FetchFunc
	clientSide map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		fetchers:   make(map[string]FetchFunc),
		clientSide: make(map[string]struct{}),
	}
}

// Register binds name to fn. Registering a name twice panics: it is a
// programming error caught at startup.
func (r *Registry) Register(name string, fn FetchFunc) {
	if _, dup := r.fetchers[name]; dup {
		panic("plugins: duplicate registration for " + name)
	}
	r.fetchers[name] = fn
}

// RegisterClientSide marks name as rendered entirely in the browser.
func (r *Registry) RegisterClientSide(name string) {
	r.clientSide[name] = struct{}{}
}

func (r *Registry) Lookup(name string) (FetchFunc, bool) {
	fn, ok := r.fetchers[name]
	return fn, ok
}

func (r *Registry) IsClientSide(name string) bool {
	_, ok := r.clientSide[name]
	return ok
}

// Names lists the server-side plugin ids, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.fetchers))
}

// DefaultRegistry wires the built-in plugins.
func DefaultRegistry(client *upstream.Client, timeout time.Duration, log logger.Logger) *Registry {
	r := NewRegistry()
	r.Register(arrcalendar.Name, arrcalendar.New(client, timeout, log).Fetch)
	r.Register(sabnzbd.Name, sabnzbd.New(client, timeout).Fetch)
	r.RegisterClientSide("clock")
	return r
}
