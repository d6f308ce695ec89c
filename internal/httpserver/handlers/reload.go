package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkus/internal/logger"
)

type reloadResponse struct {
	Status string `json:"status"`
}

// Reload asks the reloader to re-read the dashboard document. The trigger
// holds one pending request; extra requests are refused until it is consumed.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("dashboard reload requested",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, reloadResponse{Status: "reload triggered"})
		default:
			d.Logger.Warn("dashboard reload already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, reloadResponse{Status: "reload already pending"})
		}
	}
}
