package utils

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{"remote only", "192.0.2.7:4100", nil, false, "192.0.2.7"},
		{"headers ignored untrusted", "192.0.2.7:4100", map[string]string{"X-Forwarded-For": "10.0.0.1"}, false, "192.0.2.7"},
		{"cloudflare first", "127.0.0.1:1", map[string]string{"CF-Connecting-IP": "198.51.100.2", "X-Forwarded-For": "10.0.0.1"}, true, "198.51.100.2"},
		{"left-most forwarded", "127.0.0.1:1", map[string]string{"X-Forwarded-For": " 10.0.0.1 , 10.0.0.2"}, true, "10.0.0.1"},
		{"garbage header skipped", "127.0.0.1:1", map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "10.9.8.7"}, true, "10.9.8.7"},
		{"mapped v6 remote", "[::ffff:192.0.2.9]:80", nil, false, "192.0.2.9"},
		{"v6 remote", "[2001:db8::1]:80", nil, false, "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.10 ", "2001:db8::/32", "not-an-ip", ""})

	if got := m.Invalid(); len(got) != 1 || got[0] != "not-an-ip" {
		t.Errorf("Invalid() = %v", got)
	}
	tests := map[string]bool{
		"10.200.1.1":      true,
		"192.168.1.10":    true,
		"192.168.1.11":    false,
		"::ffff:10.0.0.5": true,
		"2001:db8:1::9":   true,
		"2001:db9::1":     false,
		"":                false,
		"10.0.0.1:8080":   true,
	}
	for ip, want := range tests {
		if got := m.Allow(ip); got != want {
			t.Errorf("Allow(%q) = %v, want %v", ip, got, want)
		}
	}
}

func TestIPMatcherEmpty(t *testing.T) {
	if !NewIPMatcher([]string{" ", "bogus"}).IsEmpty() {
		t.Error("matcher without valid rules should be empty")
	}
}

func TestHostOnly(t *testing.T) {
	for in, want := range map[string]string{
		"dash.lan:8443": "dash.lan",
		"[::1]:80":      "::1",
		"[::1]":         "::1",
		"dash.lan":      "dash.lan",
	} {
		if got := HostOnly(in); got != want {
			t.Errorf("HostOnly(%q) = %q, want %q", in, got, want)
		}
	}
}
