package alerts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/logger"
)

func newProber(p Pinger) *Prober {
	return New(Options{HTTPTimeout: time.Second, PingTimeout: time.Second, Pinger: p}, logger.Nop())
}

func jsonServer(t *testing.T, code int, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestCheckWebJSON(t *testing.T) {
	const body = `{"status":"ok","count":3,"healthy":true,"ratio":0.5,"nothing":null,
		"items":[{"state":"up"},{"state":"down"}]}`

	tests := []struct {
		name     string
		path     string
		expected string
		want     domain.AlertState
		wantMsg  string
	}{
		{"string match", "$.status", "ok", domain.AlertOK, ""},
		{"number match", "$.count", "3", domain.AlertOK, ""},
		{"bool match", "$.healthy", "true", domain.AlertOK, ""},
		{"fraction match", "$.ratio", "0.5", domain.AlertOK, ""},
		{"null match", "$.nothing", "null", domain.AlertOK, ""},
		{"first of many", "$.items[*].state", "up", domain.AlertOK, ""},
		{"index", "$.items[1].state", "down", domain.AlertOK, ""},
		{"mismatch", "$.status", "healthy", domain.AlertError, "Expected 'healthy' at '$.status', but got 'ok'"},
		{"missing key", "$.version", "1", domain.AlertError, "JSONPath '$.version' not found in response"},
		{"empty wildcard", "$.items[*].nope", "x", domain.AlertError, "JSONPath '$.items[*].nope' not found in response"},
	}
	ts := jsonServer(t, http.StatusOK, body)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newProber(nil).Check(context.Background(), domain.CriticalAlert{
				Name: "api", Type: domain.AlertWebJSON, Target: ts.URL,
				JSONPath: tt.path, ExpectedValue: tt.expected,
			})
			if got.Name != "api" || got.Status != tt.want {
				t.Fatalf("Check() = %+v, want status %s", got, tt.want)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
		})
	}
}

func TestCheckWebJSONHTTPError(t *testing.T) {
	ts := jsonServer(t, http.StatusServiceUnavailable, `{}`)
	got := newProber(nil).Check(context.Background(), domain.CriticalAlert{
		Name: "api", Type: domain.AlertWebJSON, Target: ts.URL, JSONPath: "$.a",
	})
	if got.Status != domain.AlertError || got.Message != "HTTP Error: 503 Service Unavailable" {
		t.Errorf("Check() = %+v", got)
	}
}

func TestCheckWebJSONInvalidBody(t *testing.T) {
	ts := jsonServer(t, http.StatusOK, `<html>`)
	got := newProber(nil).Check(context.Background(), domain.CriticalAlert{
		Name: "api", Type: domain.AlertWebJSON, Target: ts.URL, JSONPath: "$.a",
	})
	if got.Status != domain.AlertError || !strings.Contains(got.Message, "invalid JSON") {
		t.Errorf("Check() = %+v", got)
	}
}

func TestCheckWebText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("All systems operational. Last error: none"))
	}))
	defer ts.Close()

	tests := []struct {
		name    string
		present string
		absent  string
		want    domain.AlertState
		wantMsg string
	}{
		{"present found", "operational", "", domain.AlertOK, ""},
		{"absent missing", "", "outage", domain.AlertOK, ""},
		{"both satisfied", "operational", "outage", domain.AlertOK, ""},
		{"present missing", "green", "", domain.AlertError, "Expected text 'green' not found"},
		{"absent found", "", "error", domain.AlertError, "Unexpected text 'error' found"},
		{"both fail", "green", "error", domain.AlertError, "Expected text 'green' not found; Unexpected text 'error' found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newProber(nil).Check(context.Background(), domain.CriticalAlert{
				Name: "status", Type: domain.AlertWebText, Target: ts.URL,
				TextPresent: tt.present, TextAbsent: tt.absent,
			})
			if got.Status != tt.want || got.Message != tt.wantMsg {
				t.Errorf("Check() = %+v, want %s %q", got, tt.want, tt.wantMsg)
			}
		})
	}
}

func TestCheckWebTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	p := New(Options{HTTPTimeout: 100 * time.Millisecond}, logger.Nop())
	got := p.Check(context.Background(), domain.CriticalAlert{
		Name: "slow", Type: domain.AlertWebText, Target: ts.URL, TextPresent: "x",
	})
	if got.Status != domain.AlertError || !strings.Contains(got.Message, "timed out") {
		t.Errorf("Check() = %+v", got)
	}
}

func TestCheckWebUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := ts.URL
	ts.Close()

	got := newProber(nil).Check(context.Background(), domain.CriticalAlert{
		Name: "gone", Type: domain.AlertWebJSON, Target: addr, JSONPath: "$.a",
	})
	if got.Status != domain.AlertError || got.Message == "" {
		t.Errorf("Check() = %+v", got)
	}
}

func TestCheckPing(t *testing.T) {
	tests := []struct {
		name    string
		pinger  PingFunc
		want    domain.AlertState
		wantMsg string
	}{
		{
			name: "alive",
			pinger: func(context.Context, string, time.Duration) (PingResult, error) {
				return PingResult{Alive: true}, nil
			},
			want: domain.AlertOK,
		},
		{
			name: "dead with output",
			pinger: func(context.Context, string, time.Duration) (PingResult, error) {
				return PingResult{Output: "  1 packets transmitted, 0 received\n"}, nil
			},
			want:    domain.AlertError,
			wantMsg: "1 packets transmitted, 0 received",
		},
		{
			name: "dead silent",
			pinger: func(context.Context, string, time.Duration) (PingResult, error) {
				return PingResult{}, nil
			},
			want:    domain.AlertError,
			wantMsg: "Host unreachable",
		},
		{
			name: "cannot run",
			pinger: func(context.Context, string, time.Duration) (PingResult, error) {
				return PingResult{}, errors.New("ping execution failed: executable not found")
			},
			want:    domain.AlertError,
			wantMsg: "ping execution failed: executable not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newProber(tt.pinger).Check(context.Background(), domain.CriticalAlert{
				Name: "nas", Type: domain.AlertPing, Target: "192.0.2.10",
			})
			if got.Status != tt.want || got.Message != tt.wantMsg {
				t.Errorf("Check() = %+v, want %s %q", got, tt.want, tt.wantMsg)
			}
		})
	}
}

func TestPingReceivesTargetAndTimeout(t *testing.T) {
	var host string
	var timeout time.Duration
	p := New(Options{PingTimeout: 3 * time.Second, Pinger: PingFunc(func(_ context.Context, h string, d time.Duration) (PingResult, error) {
		host, timeout = h, d
		return PingResult{Alive: true}, nil
	})}, logger.Nop())

	p.Check(context.Background(), domain.CriticalAlert{Name: "nas", Type: domain.AlertPing, Target: "nas.lan"})
	if host != "nas.lan" || timeout != 3*time.Second {
		t.Errorf("pinger got %q, %v", host, timeout)
	}
}

func TestCheckUnknownType(t *testing.T) {
	got := newProber(nil).Check(context.Background(), domain.CriticalAlert{Name: "x", Type: "smtp"})
	if got.Status != domain.AlertError {
		t.Errorf("Check() = %+v", got)
	}
}

func TestPingArgs(t *testing.T) {
	unix := strings.Join(pingArgs("linux", "nas", 5*time.Second), " ")
	if unix != "-c 1 -W 5 nas" {
		t.Errorf("unix args = %q", unix)
	}
	win := strings.Join(pingArgs("windows", "nas", 5*time.Second), " ")
	if win != "-n 1 -w 5000 nas" {
		t.Errorf("windows args = %q", win)
	}
}

func TestSystemPingerRejectsOptions(t *testing.T) {
	for _, host := range []string{"", "-f", "host name"} {
		if _, err := (SystemPinger{}).Ping(context.Background(), host, time.Second); err == nil {
			t.Errorf("Ping(%q) expected validation error", host)
		}
	}
}

func TestIsMultiMatch(t *testing.T) {
	tests := map[string]bool{
		"$.status":         false,
		"$.items[1].state": false,
		`$["a,b"]`:         false,
		`$['x:y'].z`:       false,
		`$["a\"],[b"]`:     false,
		`$["*"]`:           false,
		"$..state":         true,
		"$.items[*]":       true,
		"$.items[0,1]":     true,
		"$.items[0:2]":     true,
		"$.items[?(@.up)]": true,
		`$["a","b"]`:       true,
		`$["k.v"]..name`:   true,
	}
	for path, want := range tests {
		if got := isMultiMatch(path); got != want {
			t.Errorf("isMultiMatch(%s) = %v, want %v", path, got, want)
		}
	}
}

func TestCheckWebJSONQuotedKey(t *testing.T) {
	ts := jsonServer(t, http.StatusOK, `{"a,b":"x","c:d":{"e":1}}`)
	for path, want := range map[string]string{`$["a,b"]`: "x", `$["c:d"].e`: "1"} {
		got := newProber(nil).Check(context.Background(), domain.CriticalAlert{
			Name: "keys", Type: domain.AlertWebJSON, Target: ts.URL,
			JSONPath: path, ExpectedValue: want,
		})
		if got.Status != domain.AlertOK {
			t.Errorf("%s: Check() = %+v", path, got)
		}
	}
}
