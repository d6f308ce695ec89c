package domain

// ServiceStatus is the outcome of a single health probe. No history is kept.
type ServiceStatus struct {
	Online       bool   `json:"online"`
	Status       *int   `json:"status,omitempty"`
	StatusText   string `json:"statusText,omitempty"`
	ResponseTime *int64 `json:"responseTime,omitempty"` // milliseconds
	Error        string `json:"error,omitempty"`
}

// Offline builds a failed status carrying msg.
func Offline(msg string) ServiceStatus {
	return ServiceStatus{Online: false, Error: msg}
}

// AlertType is the discriminant of a critical alert definition.
type AlertType string

const (
	AlertPing    AlertType = "ping"
	AlertWebJSON AlertType = "web_json"
	AlertWebText AlertType = "web_text"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertPing, AlertWebJSON, AlertWebText:
		return true
	}
	return false
}

// CriticalAlert is an independent health probe defined next to the services.
// Fields that do not apply to Type are left empty.
type CriticalAlert struct {
	Name     string
	Type     AlertType
	Target   string
	Interval int // seconds, 0 = client default

	// web_json
	JSONPath      string
	ExpectedValue string

	// web_text
	TextPresent string
	TextAbsent  string

	Visibility AlertVisibility
}

// AlertSummary is the client safe projection of a CriticalAlert.
type AlertSummary struct {
	Name     string    `json:"name"`
	Type     AlertType `json:"type"`
	Interval int       `json:"interval,omitempty"`
}

func (a CriticalAlert) Summary() AlertSummary {
	return AlertSummary{Name: a.Name, Type: a.Type, Interval: a.Interval}
}

type AlertState string

const (
	AlertOK    AlertState = "ok"
	AlertError AlertState = "error"
)

// AlertStatus is the outcome of one critical alert probe.
type AlertStatus struct {
	Name    string     `json:"name"`
	Status  AlertState `json:"status"`
	Message string     `json:"message,omitempty"`
}
