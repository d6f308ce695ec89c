package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/identity"
	"github.com/MrSnakeDoc/linkus/internal/logger"
)

// Snapshots returns the active dashboard (dashboard.Store).
type Snapshots interface {
	Load() *domain.Dashboard
	Ready() bool
}

// StatusProber is the health prober (probe.Prober).
type StatusProber interface {
	Probe(ctx context.Context, checkURL string, headers map[string]string) domain.ServiceStatus
}

// PluginRunner is the plugin aggregator (plugins.Aggregator).
type PluginRunner interface {
	Run(ctx context.Context, plugin, service string, id domain.Identity) (any, error)
}

// AlertChecker is the critical alert prober (alerts.Prober).
type AlertChecker interface {
	Check(ctx context.Context, a domain.CriticalAlert) domain.AlertStatus
}

// Suggester is the search-suggestion proxy (suggest.Client).
type Suggester interface {
	Suggest(ctx context.Context, q string) []string
}

// CachePinger is the optional plugin cache (store/redis.Store).
type CachePinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access admin endpoints
	TrustProxy   bool             // true if running behind a trusted reverse proxy
	ConfigFile   string           // Path to the dashboard document

	Dashboard Snapshots
	Identity  *identity.Resolver
	Prober    StatusProber
	Plugins   PluginRunner
	Alerts    AlertChecker
	Suggest   Suggester
	Cache     CachePinger // nil when Redis is not configured

	PluginNames []string // server-side plugins, reported by /infra

	ReloadTrigger chan struct{} // Channel to trigger manual dashboard reload
}

// Now returns TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
