package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkus/internal/identity"
)

// Plugin serves /api/plugins/{plugin}/{service}.
func Plugin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plugin, service := chi.URLParam(r, "plugin"), chi.URLParam(r, "service")
		if plugin == "" || service == "" {
			writeError(w, http.StatusBadRequest, "Plugin and service parameters are required")
			return
		}

		payload, err := d.Plugins.Run(r.Context(), plugin, service, identity.FromContext(r.Context()))
		if err != nil {
			writeError(w, pluginStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

func pluginStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsKind(err, domain.KindValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
