package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkus/internal/identity"
)

// Alerts lists the critical alerts visible to the caller.
func Alerts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identity.FromContext(r.Context())
		out := make([]domain.AlertSummary, 0)
		if dash := d.Dashboard.Load(); dash != nil {
			for _, a := range dash.Alerts {
				if domain.IsAlertAuthorized(id, a.Visibility) {
					out = append(out, a.Summary())
				}
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// AlertStatus runs the check named ?name=. Unknown and not-allowed alerts get
// the same 404 so alert names cannot be enumerated.
func AlertStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			writeError(w, http.StatusBadRequest, "Missing required query parameter: name")
			return
		}

		alert, ok := d.Dashboard.Load().FindAlert(name)
		if !ok || !domain.IsAlertAuthorized(identity.FromContext(r.Context()), alert.Visibility) {
			writeError(w, http.StatusNotFound, "Alert configuration not found: "+name)
			return
		}

		writeJSON(w, http.StatusOK, d.Alerts.Check(r.Context(), alert))
	}
}
