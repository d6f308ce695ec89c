package domain

import (
	"strconv"
	"time"
)

// ServiceType is the behavior of a dashboard entry.
type ServiceType string

const (
	ServiceHTTPCheck ServiceType = "http_check"
	ServicePlugin    ServiceType = "plugin"
	ServiceLink      ServiceType = "link"
)

// Valid reports whether t is one of the known service types.
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceHTTPCheck, ServicePlugin, ServiceLink:
		return true
	}
	return false
}

// Service is one configured dashboard entry.
//
// It is built once when the dashboard document is loaded and never mutated
// afterwards. Every request reads the same value concurrently.
//
// A Service is uniquely identified by its Name.
type Service struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// Name is the unique key (plugin endpoints address services by name).
	Name string

	// Type selects health checking, plugin rendering or a plain link.
	Type ServiceType

	// ─────────────────────────────
	// Display
	// ─────────────────────────────

	Icon        string
	Category    string
	Description string

	// URL is the display link shown to users. Status requests must match
	// it exactly.
	URL string

	// ─────────────────────────────
	// Probing & plugins
	// ─────────────────────────────

	// CheckURL overrides URL as the probe address (internal vs external host).
	CheckURL string

	// Headers are sent verbatim with every health probe.
	Headers map[string]string

	// Plugin names the registered fetch routine for plugin services.
	Plugin string

	// Config is the plugin specific block (API keys, base URLs, intervals).
	Config map[string]any

	// PingInterval is the client poll interval in seconds, 0 = client default.
	PingInterval int

	// ─────────────────────────────
	// Visibility
	// ─────────────────────────────

	Visibility Visibility
}

// ProbeAddress returns CheckURL when set, else URL.
func (s Service) ProbeAddress() string {
	if s.CheckURL != "" {
		return s.CheckURL
	}
	return s.URL
}

// ConfigString returns a string value from the plugin config.
// Missing keys and non-string values are reported as empty.
func (s Service) ConfigString(key string) string {
	v, ok := s.Config[key].(string)
	if !ok {
		return ""
	}
	return v
}

// UpdateInterval is config.update_interval in seconds, 0 when unset or invalid.
func (s Service) UpdateInterval() time.Duration {
	var secs float64
	switch v := s.Config["update_interval"].(type) {
	case int:
		secs = float64(v)
	case int64:
		secs = float64(v)
	case float64:
		secs = v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		secs = f
	default:
		return 0
	}
	if secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// Category groups services on the page. It carries no behavior.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// AppSettings holds page level presentation values.
type AppSettings struct {
	Title string `json:"title"`
	Theme string `json:"theme,omitempty"`
}

// Dashboard is an immutable snapshot of the loaded document.
type Dashboard struct {
	App        AppSettings
	Services   []Service
	Categories []Category
	Alerts     []CriticalAlert

	// DevIdentity replaces header identity when dev mode is enabled.
	DevIdentity *Identity

	LoadedAt time.Time
	Source   string
}

// FindService returns the service with name and plugin, in document order.
func (d *Dashboard) FindService(name, plugin string) (Service, bool) {
	if d == nil {
		return Service{}, false
	}
	for _, s := range d.Services {
		if s.Name == name && s.Plugin == plugin {
			return s, true
		}
	}
	return Service{}, false
}

// FindAlert looks up a critical alert by name.
func (d *Dashboard) FindAlert(name string) (CriticalAlert, bool) {
	if d == nil {
		return CriticalAlert{}, false
	}
	for _, a := range d.Alerts {
		if a.Name == name {
			return a, true
		}
	}
	return CriticalAlert{}, false
}
