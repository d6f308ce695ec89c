package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.StatusTimeout != 10*time.Second {
		t.Errorf("StatusTimeout = %v, want 10s", cfg.StatusTimeout)
	}
	if cfg.PluginTimeout != 15*time.Second {
		t.Errorf("PluginTimeout = %v, want 15s", cfg.PluginTimeout)
	}
	if cfg.AlertHTTPTimeout != 10*time.Second || cfg.PingTimeout != 5*time.Second {
		t.Errorf("alert timeouts = %v/%v, want 10s/5s", cfg.AlertHTTPTimeout, cfg.PingTimeout)
	}
	if cfg.ConfigFile != "/app/config/config.yaml" || cfg.ExampleConfigFile != "/app/config.example.yaml" {
		t.Errorf("config paths = %q/%q", cfg.ConfigFile, cfg.ExampleConfigFile)
	}
	if cfg.HeaderUser != "Remote-User" || cfg.HeaderGroups != "Remote-Groups" {
		t.Errorf("header names = %q/%q", cfg.HeaderUser, cfg.HeaderGroups)
	}
	if cfg.RedisEnabled() {
		t.Error("redis should be disabled by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LINKUS_LISTEN_ADDR", ":9090")
	t.Setenv("LINKUS_LOG_LEVEL", "DEBUG")
	t.Setenv("LINKUS_PLUGIN_TIMEOUT", "3s")
	t.Setenv("LINKUS_DEV_MODE", "true")
	t.Setenv("LINKUS_ALLOWED_CIDRS", "10.0.0.0/8, 192.168.1.10")
	t.Setenv("LINKUS_CORS_ORIGINS", `"https://dash.example.com", https://alt.example.com`)
	t.Setenv("LINKUS_REDIS_ADDR", "localhost:6379")
	t.Setenv("LINKUS_REDIS_DB", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want lower-cased debug", cfg.LogLevel)
	}
	if cfg.PluginTimeout != 3*time.Second {
		t.Errorf("PluginTimeout = %v", cfg.PluginTimeout)
	}
	if !cfg.DevMode {
		t.Error("DevMode should be true")
	}
	if !reflect.DeepEqual(cfg.AllowedCIDRS, []string{"10.0.0.0/8", "192.168.1.10"}) {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"https://dash.example.com", "https://alt.example.com"}) {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if !cfg.RedisEnabled() || cfg.RedisDB != 2 {
		t.Errorf("redis = %q db %d", cfg.RedisAddr, cfg.RedisDB)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{"bad duration", "LINKUS_STATUS_TIMEOUT", "ten seconds", "LINKUS_STATUS_TIMEOUT"},
		{"zero timeout", "LINKUS_PING_TIMEOUT", "0s", "LINKUS_PING_TIMEOUT"},
		{"negative rate limit", "LINKUS_RATE_LIMIT", "-1", "LINKUS_RATE_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should name %s", err, tt.wantMsg)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "a", []string{"a"}},
		{"spaces and quotes", ` a , "b",'c' `, []string{"a", "b", "c"}},
		{"drops empties", "a,,b, ,", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitAndTrim(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("splitAndTrim(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
