// Package arrcalendar merges the Sonarr and Radarr calendars into one event list.
package arrcalendar

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/logger"
	"github.com/MrSnakeDoc/linkus/internal/upstream"
)

// Plugin id as used in the dashboard document.
const Name = "arrCalendar"

const (
	TypeTV    = "tv"
	TypeMovie = "movie"
)

// Calendar window, relative to today (UTC).
const (
	daysBack  = 1
	daysAhead = 30
)

// Event is one calendar entry, shaped for the client calendar widget.
type Event struct {
	Title         string        `json:"title"`
	Start         string        `json:"start"`
	Type          string        `json:"type"`
	ExtendedProps ExtendedProps `json:"extendedProps"`
}

type ExtendedProps struct {
	Subtitle      string `json:"subtitle,omitempty"`
	SeasonNumber  *int   `json:"seasonNumber,omitempty"`
	EpisodeNumber *int   `json:"episodeNumber,omitempty"`
	Thumbnail     string `json:"thumbnail,omitempty"`
	ImdbID        string `json:"imdbId,omitempty"`
	TmdbID        *int   `json:"tmdbId,omitempty"`
}

// Getter is the part of upstream.Client this package needs.
type Getter interface {
	GetJSON(ctx context.Context, req upstream.Request, out any) error
}

// Fetcher implements the calendar plugin.
type Fetcher struct {
	client  Getter
	timeout time.Duration
	logger  logger.Logger
	now     func() time.Time
}

func New(client Getter, timeout time.Duration, log logger.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		timeout: timeout,
		logger:  log.With(logger.String("plugin", Name)),
		now:     time.Now,
	}
}

type source struct {
	name    string
	baseURL string
	apiKey  string
	fetch   func(ctx context.Context, f *Fetcher, s source, start, end string) ([]Event, error)
}

// Fetch queries every configured source in parallel and returns the merged
// events sorted by start. A failing source contributes nothing; having no
// source configured at all is a configuration error.
func (f *Fetcher) Fetch(ctx context.Context, svc domain.Service) (any, error) {
	sources := configuredSources(svc)
	if len(sources) == 0 {
		return nil, domain.Errorf(domain.KindConfiguration, Name,
			"Neither Sonarr nor Radarr API key and base URL are configured correctly for arrCalendar service.")
	}

	now := f.now().UTC()
	start := now.AddDate(0, 0, -daysBack).Format(time.DateOnly)
	end := now.AddDate(0, 0, daysAhead).Format(time.DateOnly)

	// One slot per source keeps the merge order deterministic.
	results := make([][]Event, len(sources))
	var g errgroup.Group
	for i, s := range sources {
		g.Go(func() error {
			events, err := s.fetch(ctx, f, s, start, end)
			if err != nil {
				f.logger.Warn("calendar source failed, skipping",
					logger.String("service", svc.Name),
					logger.String("source", s.name),
					logger.String("kind", domain.KindOf(err).String()),
					logger.Error(err))
				return nil
			}
			results[i] = events
			return nil
		})
	}
	_ = g.Wait()

	merged := make([]Event, 0)
	for _, r := range results {
		merged = append(merged, r...)
	}
	sortByStart(merged)
	return merged, nil
}

func configuredSources(svc domain.Service) []source {
	var out []source
	if key, base := svc.ConfigString("sonarr_api_key"), svc.ConfigString("sonarr_base_url"); key != "" && base != "" {
		out = append(out, source{name: "Sonarr", baseURL: base, apiKey: key, fetch: fetchSonarr})
	}
	if key, base := svc.ConfigString("radarr_api_key"), svc.ConfigString("radarr_base_url"); key != "" && base != "" {
		out = append(out, source{name: "Radarr", baseURL: base, apiKey: key, fetch: fetchRadarr})
	}
	return out
}

func (f *Fetcher) request(s source, start, end string, extra url.Values) upstream.Request {
	q := url.Values{}
	q.Set("apikey", s.apiKey)
	q.Set("start", start)
	q.Set("end", end)
	q.Set("unmonitored", "false")
	for k, v := range extra {
		q[k] = v
	}
	return upstream.Request{
		Source:  s.name,
		URL:     strings.TrimRight(s.baseURL, "/") + "/api/v3/calendar",
		Query:   q,
		Timeout: f.timeout,
	}
}

type image struct {
	CoverType string `json:"coverType"`
	RemoteURL string `json:"remoteUrl"`
}

func poster(images []image) string {
	for _, img := range images {
		if img.CoverType == "poster" {
			return img.RemoteURL
		}
	}
	return ""
}

type episode struct {
	Title         string `json:"title"`
	AirDateUTC    string `json:"airDateUtc"`
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	Series        *struct {
		Title  string  `json:"title"`
		ImdbID string  `json:"imdbId"`
		Images []image `json:"images"`
	} `json:"series"`
}

func fetchSonarr(ctx context.Context, f *Fetcher, s source, start, end string) ([]Event, error) {
	var episodes []episode
	req := f.request(s, start, end, url.Values{"includeSeries": {"true"}})
	if err := f.client.GetJSON(ctx, req, &episodes); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(episodes))
	for _, ep := range episodes {
		season, number := ep.SeasonNumber, ep.EpisodeNumber
		ev := Event{
			Start: ep.AirDateUTC,
			Type:  TypeTV,
			ExtendedProps: ExtendedProps{
				Subtitle:      ep.Title,
				SeasonNumber:  &season,
				EpisodeNumber: &number,
			},
		}
		if ep.Series != nil {
			ev.Title = ep.Series.Title
			ev.ExtendedProps.Thumbnail = poster(ep.Series.Images)
			ev.ExtendedProps.ImdbID = ep.Series.ImdbID
		}
		events = append(events, ev)
	}
	return events, nil
}

type movie struct {
	Title           string  `json:"title"`
	InCinemas       string  `json:"inCinemas"`
	DigitalRelease  string  `json:"digitalRelease"`
	PhysicalRelease string  `json:"physicalRelease"`
	ImdbID          string  `json:"imdbId"`
	TmdbID          *int    `json:"tmdbId"`
	Images          []image `json:"images"`
}

// releaseDate picks digital, then physical, then cinema release.
func (m movie) releaseDate() string {
	for _, d := range []string{m.DigitalRelease, m.PhysicalRelease, m.InCinemas} {
		if d != "" {
			return d
		}
	}
	return ""
}

func fetchRadarr(ctx context.Context, f *Fetcher, s source, start, end string) ([]Event, error) {
	var movies []movie
	if err := f.client.GetJSON(ctx, f.request(s, start, end, nil), &movies); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(movies))
	for _, m := range movies {
		date := m.releaseDate()
		if date == "" {
			continue
		}
		events = append(events, Event{
			Title: m.Title,
			Start: date,
			Type:  TypeMovie,
			ExtendedProps: ExtendedProps{
				Subtitle:  "Movie Release",
				Thumbnail: poster(m.Images),
				ImdbID:    m.ImdbID,
				TmdbID:    m.TmdbID,
			},
		})
	}
	return events, nil
}

// sortByStart orders events by parsed timestamp. Ties and unparseable
// timestamps keep insertion order, unparseable ones last.
func sortByStart(events []Event) {
	keys := make([]time.Time, len(events))
	for i, e := range events {
		keys[i] = parseStart(e.Start)
	}
	idx := make([]int, len(events))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		switch {
		case ka.IsZero():
			return false
		case kb.IsZero():
			return true
		default:
			return ka.Before(kb)
		}
	})
	sorted := make([]Event, len(events))
	for i, j := range idx {
		sorted[i] = events[j]
	}
	copy(events, sorted)
}

func parseStart(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
