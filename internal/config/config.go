package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "LINKUS"

type Config struct {
	ListenAddr      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // chi per-request timeout, must exceed the plugin timeout

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Dashboard document
	ConfigFile        string // runtime YAML document
	ExampleConfigFile string // copied to ConfigFile when the latter is missing
	WatchConfig       bool   // reload the document on file change

	// Identity
	DevMode      bool   // take identity from the document's Remote-* keys
	HeaderUser   string // ex: Remote-User
	HeaderName   string
	HeaderEmail  string
	HeaderGroups string

	// Outbound timeouts
	StatusTimeout    time.Duration // health prober (10s)
	PluginTimeout    time.Duration // per upstream source (15s)
	AlertHTTPTimeout time.Duration // web_json / web_text (10s)
	PingTimeout      time.Duration // ping alerts (5s)

	// Search suggestions
	SuggestURL      string
	SuggestLanguage string

	// Redis (optional, empty addr = plugin cache disabled)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisMaxWait        time.Duration // cap between retries
	RedisPingTimeout    time.Duration // per ping attempt
	RedisWarnThreshold  int

	// Access restrictions
	RateLimit    int      // requests per minute per IP on /api, 0 = off
	CORSOrigins  []string // empty = same-origin only
	AllowedHosts []string // optional, restrict admin endpoints to specific Host headers
	AllowedCIDRS []string // optional, restrict admin endpoints to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

// RedisEnabled reports whether the optional plugin cache is configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("shutdown_timeout", "5s")
	v.SetDefault("request_timeout", "30s")

	v.SetDefault("log_level", "info")
	v.SetDefault("pretty_log", false)

	v.SetDefault("config_file", "/app/config/config.yaml")
	v.SetDefault("example_config_file", "/app/config.example.yaml")
	v.SetDefault("watch_config", true)

	v.SetDefault("dev_mode", false)
	v.SetDefault("header_user", "Remote-User")
	v.SetDefault("header_name", "Remote-Name")
	v.SetDefault("header_email", "Remote-Email")
	v.SetDefault("header_groups", "Remote-Groups")

	v.SetDefault("status_timeout", "10s")
	v.SetDefault("plugin_timeout", "15s")
	v.SetDefault("alert_http_timeout", "10s")
	v.SetDefault("ping_timeout", "5s")

	v.SetDefault("suggest_url", "https://suggestqueries.google.com/complete/search")
	v.SetDefault("suggest_language", "de")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_username", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_dial_timeout", "5s")
	v.SetDefault("redis_read_timeout", "3s")
	v.SetDefault("redis_write_timeout", "3s")
	v.SetDefault("redis_pool_size", 10)
	v.SetDefault("redis_connect_timeout", "10s")
	v.SetDefault("redis_retry_interval", "1s")
	v.SetDefault("redis_max_wait", "5s")
	v.SetDefault("redis_ping_timeout", "2s")
	v.SetDefault("redis_warn_threshold", 3)

	v.SetDefault("rate_limit", 120)
	v.SetDefault("cors_origins", "")
	v.SetDefault("allowed_hosts", "")
	v.SetDefault("allowed_cidrs", "")
	v.SetDefault("trust_proxy", false)
}

// Load reads LINKUS_* environment variables on top of the defaults above.
// Unparseable durations or out of range values fail the load.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(false)
	v.AutomaticEnv()

	p := &parser{v: v}
	cfg := &Config{
		// Server settings
		ListenAddr:      v.GetString("listen_addr"),
		ShutdownTimeout: p.duration("shutdown_timeout"),
		RequestTimeout:  p.duration("request_timeout"),

		// Logging
		LogLevel:  strings.ToLower(v.GetString("log_level")),
		PrettyLog: v.GetBool("pretty_log"),

		// Dashboard document
		ConfigFile:        v.GetString("config_file"),
		ExampleConfigFile: v.GetString("example_config_file"),
		WatchConfig:       v.GetBool("watch_config"),

		// Identity
		DevMode:      v.GetBool("dev_mode"),
		HeaderUser:   v.GetString("header_user"),
		HeaderName:   v.GetString("header_name"),
		HeaderEmail:  v.GetString("header_email"),
		HeaderGroups: v.GetString("header_groups"),

		// Outbound timeouts
		StatusTimeout:    p.duration("status_timeout"),
		PluginTimeout:    p.duration("plugin_timeout"),
		AlertHTTPTimeout: p.duration("alert_http_timeout"),
		PingTimeout:      p.duration("ping_timeout"),

		SuggestURL:      v.GetString("suggest_url"),
		SuggestLanguage: v.GetString("suggest_language"),

		// Redis settings
		RedisAddr:           v.GetString("redis_addr"),
		RedisUser:           v.GetString("redis_username"),
		RedisPassword:       v.GetString("redis_password"),
		RedisDB:             v.GetInt("redis_db"),
		RedisDT:             p.duration("redis_dial_timeout"),
		RedisRT:             p.duration("redis_read_timeout"),
		RedisWT:             p.duration("redis_write_timeout"),
		RedisPoolSize:       v.GetInt("redis_pool_size"),
		RedisConnectTimeout: p.duration("redis_connect_timeout"),
		RedisRetryInterval:  p.duration("redis_retry_interval"),
		RedisMaxWait:        p.duration("redis_max_wait"),
		RedisPingTimeout:    p.duration("redis_ping_timeout"),
		RedisWarnThreshold:  v.GetInt("redis_warn_threshold"),

		// Access restrictions
		RateLimit:    v.GetInt("rate_limit"),
		CORSOrigins:  splitAndTrim(v.GetString("cors_origins")),
		AllowedHosts: splitAndTrim(v.GetString("allowed_hosts")),
		AllowedCIDRS: parseAllowedIPs(v.GetString("allowed_cidrs")),
		TrustProxy:   v.GetBool("trust_proxy"),
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	var errs []error
	positive := map[string]time.Duration{
		"SHUTDOWN_TIMEOUT":   cfg.ShutdownTimeout,
		"REQUEST_TIMEOUT":    cfg.RequestTimeout,
		"STATUS_TIMEOUT":     cfg.StatusTimeout,
		"PLUGIN_TIMEOUT":     cfg.PluginTimeout,
		"ALERT_HTTP_TIMEOUT": cfg.AlertHTTPTimeout,
		"PING_TIMEOUT":       cfg.PingTimeout,
	}
	for name, d := range positive {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s_%s must be > 0, got %v", envPrefix, name, d))
		}
	}
	if cfg.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("%s_LISTEN_ADDR must not be empty", envPrefix))
	}
	if cfg.ConfigFile == "" {
		errs = append(errs, fmt.Errorf("%s_CONFIG_FILE must not be empty", envPrefix))
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("%s_RATE_LIMIT must be >= 0, got %d", envPrefix, cfg.RateLimit))
	}
	if cfg.HeaderUser == "" {
		errs = append(errs, fmt.Errorf("%s_HEADER_USER must not be empty", envPrefix))
	}
	return errors.Join(errs...)
}

// parser collects conversion errors so every bad variable is reported at once.
type parser struct {
	v    *viper.Viper
	errs []error
}

func (p *parser) duration(key string) time.Duration {
	raw := strings.TrimSpace(p.v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s_%s: invalid duration %q", envPrefix, strings.ToUpper(key), raw))
		return 0
	}
	return d
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
