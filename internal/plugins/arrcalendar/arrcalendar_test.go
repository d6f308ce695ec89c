package arrcalendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/logger"
	"github.com/MrSnakeDoc/linkus/internal/upstream"
)

const sonarrBody = `[
  {"title":"Pilot","airDateUtc":"2026-10-20T01:00:00Z","seasonNumber":1,"episodeNumber":1,
   "series":{"title":"Show A","imdbId":"tt1","images":[{"coverType":"fanart","remoteUrl":"f.jpg"},{"coverType":"poster","remoteUrl":"p.jpg"}]}},
  {"title":"Second","airDateUtc":"2026-10-18T01:00:00Z","seasonNumber":1,"episodeNumber":2,
   "series":{"title":"Show B"}}
]`

const radarrBody = `[
  {"title":"Film","inCinemas":"2026-10-01T00:00:00Z","physicalRelease":"2026-10-25T00:00:00Z","digitalRelease":"2026-10-19T00:00:00Z","tmdbId":7,"images":[{"coverType":"poster","remoteUrl":"m.jpg"}]},
  {"title":"Undated"}
]`

func fixedNow() time.Time { return time.Date(2026, 10, 17, 22, 30, 0, 0, time.UTC) }

func newServer(t *testing.T, body string, checkSeries bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/calendar" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("start") != "2026-10-16" || q.Get("end") != "2026-11-16" {
			t.Errorf("window = %s..%s", q.Get("start"), q.Get("end"))
		}
		if q.Get("unmonitored") != "false" || q.Get("apikey") == "" {
			t.Errorf("query = %v", q)
		}
		if checkSeries && q.Get("includeSeries") != "true" {
			t.Errorf("includeSeries missing")
		}
		_, _ = w.Write([]byte(body))
	}))
}

func newFetcher() *Fetcher {
	f := New(upstream.New(logger.Nop(), upstream.DefaultBreaker), time.Second, logger.Nop())
	f.now = fixedNow
	return f
}

func calendarService(cfg map[string]any) domain.Service {
	return domain.Service{Name: "Upcoming", Type: domain.ServicePlugin, Plugin: Name, Config: cfg}
}

func TestFetchMergesAndSorts(t *testing.T) {
	sonarr := newServer(t, sonarrBody, true)
	defer sonarr.Close()
	radarr := newServer(t, radarrBody, false)
	defer radarr.Close()

	got, err := newFetcher().Fetch(context.Background(), calendarService(map[string]any{
		"sonarr_api_key": "s", "sonarr_base_url": sonarr.URL + "/",
		"radarr_api_key": "r", "radarr_base_url": radarr.URL,
	}))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	events := got.([]Event)
	wantTitles := []string{"Show B", "Film", "Show A"}
	if len(events) != len(wantTitles) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantTitles), events)
	}
	for i, want := range wantTitles {
		if events[i].Title != want {
			t.Errorf("events[%d].Title = %q, want %q", i, events[i].Title, want)
		}
	}

	film := events[1]
	if film.Type != TypeMovie || film.Start != "2026-10-19T00:00:00Z" || film.ExtendedProps.Subtitle != "Movie Release" {
		t.Errorf("movie event = %+v", film)
	}
	if film.ExtendedProps.TmdbID == nil || *film.ExtendedProps.TmdbID != 7 || film.ExtendedProps.Thumbnail != "m.jpg" {
		t.Errorf("movie props = %+v", film.ExtendedProps)
	}

	show := events[2]
	if show.Type != TypeTV || show.ExtendedProps.Subtitle != "Pilot" || show.ExtendedProps.Thumbnail != "p.jpg" {
		t.Errorf("tv event = %+v", show)
	}
	if show.ExtendedProps.SeasonNumber == nil || *show.ExtendedProps.EpisodeNumber != 1 {
		t.Errorf("tv numbering = %+v", show.ExtendedProps)
	}
}

func TestFetchToleratesOneFailingSource(t *testing.T) {
	sonarr := newServer(t, sonarrBody, true)
	defer sonarr.Close()
	radarr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer radarr.Close()

	got, err := newFetcher().Fetch(context.Background(), calendarService(map[string]any{
		"sonarr_api_key": "s", "sonarr_base_url": sonarr.URL,
		"radarr_api_key": "r", "radarr_base_url": radarr.URL,
	}))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if n := len(got.([]Event)); n != 2 {
		t.Errorf("got %d events, want the 2 Sonarr ones", n)
	}
}

func TestFetchAllSourcesFailingYieldsEmptyList(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	got, err := newFetcher().Fetch(context.Background(), calendarService(map[string]any{
		"radarr_api_key": "r", "radarr_base_url": down.URL,
	}))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	events := got.([]Event)
	if events == nil || len(events) != 0 {
		t.Errorf("events = %#v, want empty non-nil slice", events)
	}
}

func TestFetchUnconfigured(t *testing.T) {
	tests := map[string]map[string]any{
		"empty":         nil,
		"key only":      {"sonarr_api_key": "s"},
		"non string":    {"radarr_api_key": 1, "radarr_base_url": "http://radarr"},
		"blank strings": {"sonarr_api_key": "", "sonarr_base_url": ""},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newFetcher().Fetch(context.Background(), calendarService(cfg))
			if !domain.IsKind(err, domain.KindConfiguration) {
				t.Fatalf("Fetch() error = %v, want configuration error", err)
			}
		})
	}
}

func TestSortByStartKeepsUnparseableLast(t *testing.T) {
	events := []Event{
		{Title: "bad", Start: "soon"},
		{Title: "late", Start: "2026-10-20T00:00:00Z"},
		{Title: "early", Start: "2026-10-18"},
		{Title: "tie", Start: "2026-10-20T00:00:00Z"},
	}
	sortByStart(events)

	want := []string{"early", "late", "tie", "bad"}
	for i, w := range want {
		if events[i].Title != w {
			t.Errorf("events[%d] = %q, want %q", i, events[i].Title, w)
		}
	}
}

func TestFetchTVOnly(t *testing.T) {
	sonarr := newServer(t, sonarrBody, true)
	defer sonarr.Close()

	got, err := newFetcher().Fetch(context.Background(), calendarService(map[string]any{
		"sonarr_api_key": "s", "sonarr_base_url": sonarr.URL,
	}))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	events := got.([]Event)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	for i, ev := range events {
		if ev.Type != TypeTV {
			t.Errorf("events[%d].Type = %q, want %q", i, ev.Type, TypeTV)
		}
		if i > 0 && events[i-1].Start > ev.Start {
			t.Errorf("events not ascending: %q before %q", events[i-1].Start, ev.Start)
		}
	}
}

func TestFetchSourceTimeoutIsReportedPerSource(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer slow.Close()
	defer close(release)
	radarr := newServer(t, radarrBody, false)
	defer radarr.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	log := logger.FromZap(zap.New(core))
	f := New(upstream.New(log, upstream.DefaultBreaker), 100*time.Millisecond, log)
	f.now = fixedNow

	got, err := f.Fetch(context.Background(), calendarService(map[string]any{
		"sonarr_api_key": "s", "sonarr_base_url": slow.URL,
		"radarr_api_key": "r", "radarr_base_url": radarr.URL,
	}))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if events := got.([]Event); len(events) != 1 || events[0].Type != TypeMovie {
		t.Errorf("events = %+v, want only the Radarr movie", events)
	}

	skipped := logs.FilterMessage("calendar source failed, skipping").All()
	if len(skipped) != 1 {
		t.Fatalf("got %d skip logs, want 1", len(skipped))
	}
	fields := skipped[0].ContextMap()
	if fields["source"] != "Sonarr" || fields["kind"] != domain.KindTimeout.String() {
		t.Errorf("skip log fields = %v", fields)
	}
	if msg, _ := fields["error"].(string); msg != "Sonarr request timed out after 100ms" {
		t.Errorf("error = %q", msg)
	}
}
