package dashboard

// Document is the top-level structure of config.yaml.
type Document struct {
	App            AppSection      `yaml:"app"`
	Services       []ServiceEntry  `yaml:"services" validate:"dive"`
	Categories     []CategoryEntry `yaml:"categories" validate:"dive"`
	CriticalAlerts []AlertEntry    `yaml:"critical_alerts" validate:"dive"`

	// Development identity, only honored when dev mode is on.
	RemoteUser   string `yaml:"Remote-User"`
	RemoteName   string `yaml:"Remote-Name"`
	RemoteEmail  string `yaml:"Remote-Email"`
	RemoteGroups string `yaml:"Remote-Groups"` // comma separated
}

type AppSection struct {
	Title string `yaml:"title"`
	Theme string `yaml:"theme" validate:"omitempty,oneof=light dark system"`
}

// ServiceEntry is one item of the services list.
type ServiceEntry struct {
	Name         string            `yaml:"name" validate:"required"`
	Type         string            `yaml:"type" validate:"required,oneof=http_check plugin link"`
	Icon         string            `yaml:"icon,omitempty"`
	URL          string            `yaml:"url,omitempty"`
	CheckURL     string            `yaml:"check_url,omitempty" validate:"omitempty,url"`
	Category     string            `yaml:"category,omitempty"`
	Description  string            `yaml:"description,omitempty"`
	Plugin       string            `yaml:"plugin,omitempty" validate:"required_if=Type plugin"`
	Headers      map[string]string `yaml:"headers,omitempty"`
	Config       map[string]any    `yaml:"config,omitempty"`
	Groups       []string          `yaml:"groups,omitempty"`
	User         []string          `yaml:"user,omitempty"`
	PingInterval int               `yaml:"ping_interval,omitempty" validate:"gte=0"`
}

type CategoryEntry struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name"`
	Icon string `yaml:"icon,omitempty"`
}

// AlertEntry is one critical alert. Fields not relevant to Type stay empty.
type AlertEntry struct {
	Name          string   `yaml:"name" validate:"required"`
	Type          string   `yaml:"type" validate:"required,oneof=ping web_json web_text"`
	Target        string   `yaml:"target" validate:"required"`
	Interval      int      `yaml:"interval,omitempty" validate:"gte=0"`
	AllowedUsers  []string `yaml:"allowed_users,omitempty"`
	AllowedGroups []string `yaml:"allowed_groups,omitempty"`

	JSONPath      string `yaml:"json_path,omitempty" validate:"required_if=Type web_json"`
	ExpectedValue any    `yaml:"expected_value,omitempty"`

	TextPresent string `yaml:"text_present,omitempty"`
	TextAbsent  string `yaml:"text_absent,omitempty"`
}
