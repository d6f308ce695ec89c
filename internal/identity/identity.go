// Package identity derives the caller from reverse-proxy headers.
package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/linkus/internal/domain"
)

// Headers names the request headers the proxy injects.
type Headers struct {
	User   string
	Name   string
	Email  string
	Groups string
}

// DefaultHeaders match the Remote-* convention of Authelia and friends.
var DefaultHeaders = Headers{
	User:   "Remote-User",
	Name:   "Remote-Name",
	Email:  "Remote-Email",
	Groups: "Remote-Groups",
}

// Resolver builds an Identity per request.
type Resolver struct {
	headers Headers
	devMode bool
}

func NewResolver(h Headers, devMode bool) *Resolver {
	if h.User == "" {
		h = DefaultHeaders
	}
	return &Resolver{headers: h, devMode: devMode}
}

// Resolve returns the caller identity. In dev mode the dashboard's Remote-*
// values win over headers when they are set.
func (r *Resolver) Resolve(req *http.Request, dash *domain.Dashboard) domain.Identity {
	if r.devMode && dash != nil && dash.DevIdentity != nil {
		id := *dash.DevIdentity
		id.Groups = append([]string(nil), id.Groups...)
		return id
	}

	user := strings.TrimSpace(req.Header.Get(r.headers.User))
	if user == "" {
		return domain.Identity{}
	}

	name := strings.TrimSpace(req.Header.Get(r.headers.Name))
	if name == "" {
		name = user
	}

	return domain.Identity{
		User:   user,
		Name:   name,
		Email:  strings.TrimSpace(req.Header.Get(r.headers.Email)),
		Groups: splitGroups(req.Header.Get(r.headers.Groups)),
	}
}

func splitGroups(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			out = append(out, g)
		}
	}
	return out
}

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the stored identity, anonymous when absent.
func FromContext(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(ctxKey{}).(domain.Identity)
	return id
}
