package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkus/internal/identity"
)

// serviceView is the client projection of a service. Probe addresses,
// probe headers and plugin credentials never leave the server.
type serviceView struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Icon         string         `json:"icon,omitempty"`
	Category     string         `json:"category,omitempty"`
	Description  string         `json:"description,omitempty"`
	URL          string         `json:"url,omitempty"`
	Plugin       string         `json:"plugin,omitempty"`
	PingInterval int            `json:"ping_interval,omitempty"`
	Config       map[string]any `json:"config,omitempty"`
}

type servicesResponse struct {
	App        domain.AppSettings    `json:"app"`
	Services   []serviceView         `json:"services"`
	Categories []domain.Category     `json:"categories"`
	Alerts     []domain.AlertSummary `json:"alerts"`
	User       *domain.Identity      `json:"user"`
}

func newServiceView(s domain.Service) serviceView {
	v := serviceView{
		Name:         s.Name,
		Type:         string(s.Type),
		Icon:         s.Icon,
		Category:     s.Category,
		Description:  s.Description,
		URL:          s.URL,
		Plugin:       s.Plugin,
		PingInterval: s.PingInterval,
	}
	if interval := s.UpdateInterval(); interval > 0 {
		v.Config = map[string]any{"update_interval": interval.Seconds()}
	}
	return v
}

// Services returns what the page renders for the caller: visible services
// (restricted ones are omitted, not denied), categories and visible alerts.
func Services(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identity.FromContext(r.Context())
		resp := servicesResponse{
			Services:   []serviceView{},
			Categories: []domain.Category{},
			Alerts:     []domain.AlertSummary{},
		}
		if !id.Anonymous() {
			resp.User = &id
		}

		dash := d.Dashboard.Load()
		if dash == nil {
			writeJSON(w, http.StatusOK, resp)
			return
		}

		resp.App = dash.App
		for _, s := range domain.VisibleServices(id, dash.Services) {
			resp.Services = append(resp.Services, newServiceView(s))
		}
		if dash.Categories != nil {
			resp.Categories = dash.Categories
		}
		for _, a := range dash.Alerts {
			if domain.IsAlertAuthorized(id, a.Visibility) {
				resp.Alerts = append(resp.Alerts, a.Summary())
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
