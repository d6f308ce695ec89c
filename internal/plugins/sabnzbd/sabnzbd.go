// Package sabnzbd reads the SABnzbd download queue.
package sabnzbd

import (
	"bytes"
	"context"
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/upstream"
)

const Name = "sabnzbd"

// Getter is the part of upstream.Client this package needs.
type Getter interface {
	GetJSON(ctx context.Context, req upstream.Request, out any) error
}

// Item is one queued download.
type Item struct {
	Name      string `json:"name"`
	Size      string `json:"size"`
	Remaining string `json:"remaining"`
	Progress  *int   `json:"progress"` // null when SABnzbd reports a non-numeric percentage
	Status    string `json:"status"`
	TimeLeft  string `json:"timeLeft"`
}

// Snapshot is the plugin payload.
type Snapshot struct {
	Queue     []Item `json:"queue"`
	Speed     string `json:"speed"`
	Remaining string `json:"remaining"`
}

type Fetcher struct {
	client  Getter
	timeout time.Duration
}

func New(client Getter, timeout time.Duration) *Fetcher {
	return &Fetcher{client: client, timeout: timeout}
}

// text accepts both JSON strings and numbers; SABnzbd versions disagree.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	*t = text(b)
	return nil
}

type queueResponse struct {
	Queue *struct {
		Slots []struct {
			Filename   text `json:"filename"`
			Size       text `json:"size"`
			SizeLeft   text `json:"sizeleft"`
			Percentage text `json:"percentage"`
			Status     text `json:"status"`
			TimeLeft   text `json:"timeleft"`
		} `json:"slots"`
		SizeLeft text `json:"sizeleft"`
		KBPerSec text `json:"kbpersec"`
	} `json:"queue"`
}

// Fetch returns the current queue of the SABnzbd instance configured on svc.
func (f *Fetcher) Fetch(ctx context.Context, svc domain.Service) (any, error) {
	apiKey, baseURL := svc.ConfigString("api_key"), svc.ConfigString("base_url")
	if apiKey == "" || baseURL == "" {
		return nil, wrap(domain.Errorf(domain.KindConfiguration, Name,
			"Sabnzbd API key or base URL is missing or invalid in service configuration."))
	}

	var resp queueResponse
	err := f.client.GetJSON(ctx, upstream.Request{
		Source: "SABnzbd",
		URL:    strings.TrimRight(baseURL, "/") + "/sabnzbd/api",
		Query: url.Values{
			"mode":   {"queue"},
			"output": {"json"},
			"apikey": {apiKey},
		},
		Timeout: f.timeout,
	}, &resp)
	if err != nil {
		return nil, wrap(err)
	}

	if resp.Queue == nil {
		return nil, wrap(domain.Errorf(domain.KindParse, Name, "Failed to parse JSON response: missing queue object"))
	}
	kbps, ok := leadingFloat(string(resp.Queue.KBPerSec))
	if !ok {
		return nil, wrap(domain.Errorf(domain.KindParse, Name,
			"Failed to parse JSON response: kbpersec %q is not a number", resp.Queue.KBPerSec))
	}

	items := make([]Item, 0, len(resp.Queue.Slots))
	for _, s := range resp.Queue.Slots {
		items = append(items, Item{
			Name:      string(s.Filename),
			Size:      string(s.Size),
			Remaining: string(s.SizeLeft),
			Progress:  leadingInt(string(s.Percentage)),
			Status:    string(s.Status),
			TimeLeft:  string(s.TimeLeft),
		})
	}

	return Snapshot{
		Queue:     items,
		Speed:     FormatSpeed(kbps),
		Remaining: string(resp.Queue.SizeLeft),
	}, nil
}

// wrap prefixes the message while keeping the kind of err.
func wrap(err error) error {
	return domain.Wrap(domain.KindOf(err), Name, err, "Failed to fetch Sabnzbd data: "+err.Error())
}

// FormatSpeed renders a KB/s figure with binary unit steps.
func FormatSpeed(kbps float64) string {
	switch {
	case kbps >= 1024*1024:
		return strconv.FormatFloat(kbps/(1024*1024), 'f', 2, 64) + " GB/s"
	case kbps >= 1024:
		return strconv.FormatFloat(kbps/1024, 'f', 2, 64) + " MB/s"
	default:
		return strconv.FormatFloat(math.Floor(kbps+0.5), 'f', 0, 64) + " KB/s"
	}
}

// leadingInt parses an optional sign and the leading digits of s, ignoring
// leading whitespace. "45.7" is 45; no digits gives nil.
func leadingInt(s string) *int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}
	n, err := strconv.Atoi(s[:end])
	if errors.Is(err, strconv.ErrRange) {
		// out of range still counts as a number; saturate
		n = math.MaxInt
		if s[0] == '-' {
			n = math.MinInt
		}
	} else if err != nil {
		return nil
	}
	return &n
}

// leadingFloat parses the longest numeric prefix of s: sign, digits, one
// decimal point and an optional exponent.
func leadingFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	mantissa := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		mantissa++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			mantissa++
		}
	}
	if mantissa == 0 {
		return 0, false
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		digits := exp
		for exp < len(s) && isDigit(s[exp]) {
			exp++
		}
		if exp > digits {
			end = exp
		}
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
