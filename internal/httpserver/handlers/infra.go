package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
)

type componentStatus struct {
	OK             bool     `json:"ok"`
	ServicesLoaded *int     `json:"services_loaded,omitempty"`
	AlertsLoaded   *int     `json:"alerts_loaded,omitempty"`
	LastReload     string   `json:"last_reload,omitempty"`
	Source         string   `json:"source,omitempty"`
	Mode           string   `json:"mode,omitempty"`
	Impact         string   `json:"impact,omitempty"`
	Registered     []string `json:"registered,omitempty"`
	Error          string   `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"dashboard": checkDashboard(d),
			"cache":     checkCache(r.Context(), d),
			"plugins":   {OK: true, Registered: d.PluginNames},
		}
		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if dash, ok := components["dashboard"]; ok && !dash.OK {
		return "critical" // nothing to serve
	}
	// The cache is optional; a configured but unreachable one only costs freshness control.
	if cache, ok := components["cache"]; ok && !cache.OK {
		return "degraded"
	}
	return "operational"
}

func checkDashboard(d deps.Deps) componentStatus {
	dash := d.Dashboard.Load()
	if dash == nil {
		return componentStatus{OK: false, LastReload: "never", Error: "no dashboard loaded"}
	}
	services, alerts := len(dash.Services), len(dash.Alerts)
	return componentStatus{
		OK:             true,
		ServicesLoaded: &services,
		AlertsLoaded:   &alerts,
		LastReload:     dash.LoadedAt.Format("2006-01-02 15:04:05"),
		Source:         dash.Source,
	}
}

func checkCache(ctx context.Context, d deps.Deps) componentStatus {
	if d.Cache == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "plugin-payloads-always-fresh",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Cache.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "plugin-cache-bypassed",
			Error:  err.Error(),
		}
	}
	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "plugin-cache-enabled",
	}
}
