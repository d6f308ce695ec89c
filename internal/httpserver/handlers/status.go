package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkus/internal/identity"
	"github.com/MrSnakeDoc/linkus/internal/logger"
)

const unconfiguredURL = "Unconfigured Service URL"

// Status probes the service whose display URL is ?url=. Only configured URLs
// the caller may see are probed; everything else is rejected before any
// outbound call. The body is always a ServiceStatus.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("url")
		if raw == "" {
			writeJSON(w, http.StatusBadRequest, domain.Offline("No URL provided"))
			return
		}

		var services []domain.Service
		if dash := d.Dashboard.Load(); dash != nil {
			services = dash.Services
		}

		target, err := domain.ResolveTarget(raw, services)
		if domain.IsKind(err, domain.KindValidation) {
			d.Logger.Warn("status request for unconfigured url",
				logger.String("url", raw),
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusForbidden, domain.Offline(unconfiguredURL))
			return
		}

		// Same answer as an unknown URL: a restricted service must not be
		// discoverable by probing.
		id := identity.FromContext(r.Context())
		if !domain.IsAuthorized(id, target.Service.Visibility) {
			d.Logger.Warn("status request denied",
				logger.String("service", target.Service.Name),
				logger.String("user", id.User))
			writeJSON(w, http.StatusForbidden, domain.Offline(unconfiguredURL))
			return
		}

		if err != nil {
			d.Logger.Error("status target misconfigured",
				logger.String("service", target.Service.Name),
				logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, domain.Offline(err.Error()))
			return
		}

		writeJSON(w, http.StatusOK, d.Prober.Probe(r.Context(), target.CheckURL, target.Headers))
	}
}
