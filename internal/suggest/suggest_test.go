package suggest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/linkus/internal/logger"
)

func TestSuggestDecodesLatin1(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client") != "firefox" || q.Get("hl") != "de" || q.Get("q") != "mun" {
			t.Errorf("query = %v", q)
		}
		// "münchen" with ü as the single ISO-8859-1 byte 0xFC
		_, _ = w.Write([]byte("[\"mun\",[\"m\xfcnchen\",\"munich\"]]"))
	}))
	defer ts.Close()

	got := New(ts.URL, "de", time.Second, logger.Nop()).Suggest(context.Background(), "mun")
	if len(got) != 2 || got[0] != "münchen" || got[1] != "munich" {
		t.Errorf("Suggest() = %q", got)
	}
}

func TestSuggestFailuresYieldEmptyList(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		"not json":     func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("<html>")) },
		"short array":  func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`["q"]`)) },
		"wrong shape":  func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`["q",{"a":1}]`)) },
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(h)
			defer ts.Close()

			got := New(ts.URL, "en", time.Second, logger.Nop()).Suggest(context.Background(), "x")
			if got == nil || len(got) != 0 {
				t.Errorf("Suggest() = %#v, want empty non-nil list", got)
			}
		})
	}
}

func TestSuggestEmptyQuerySkipsUpstream(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer ts.Close()

	if got := New(ts.URL, "", time.Second, logger.Nop()).Suggest(context.Background(), ""); len(got) != 0 {
		t.Errorf("Suggest(\"\") = %q", got)
	}
	if called {
		t.Error("empty query must not reach the upstream")
	}
}
