// Package alerts evaluates the critical alerts declared in the dashboard.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/goccy/go-json"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/logger"
	"github.com/MrSnakeDoc/linkus/internal/metrics"
	"github.com/MrSnakeDoc/linkus/internal/utils"
	"github.com/MrSnakeDoc/linkus/internal/version"
)

const (
	DefaultHTTPTimeout = 10 * time.Second
	DefaultPingTimeout = 5 * time.Second

	maxBody = 4 << 20
)

type Options struct {
	HTTPTimeout time.Duration
	PingTimeout time.Duration
	Pinger      Pinger // nil = system ping
}

// Prober runs one critical alert check at a time. It is safe for concurrent use.
type Prober struct {
	client      *http.Client
	httpTimeout time.Duration
	pingTimeout time.Duration
	pinger      Pinger
	logger      logger.Logger
}

func New(opts Options, log logger.Logger) *Prober {
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = DefaultHTTPTimeout
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = DefaultPingTimeout
	}
	if opts.Pinger == nil {
		opts.Pinger = SystemPinger{}
	}
	return &Prober{
		client:      &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		httpTimeout: opts.HTTPTimeout,
		pingTimeout: opts.PingTimeout,
		pinger:      opts.Pinger,
		logger:      log,
	}
}

// Check evaluates a and never fails: every problem is reported in the
// returned status.
func (p *Prober) Check(ctx context.Context, a domain.CriticalAlert) domain.AlertStatus {
	var st domain.AlertStatus
	switch a.Type {
	case domain.AlertPing:
		st = p.checkPing(ctx, a)
	case domain.AlertWebJSON:
		st = p.checkJSON(ctx, a)
	case domain.AlertWebText:
		st = p.checkText(ctx, a)
	default:
		st = failed(a, fmt.Sprintf("unknown alert type %q", a.Type))
	}
	metrics.AlertChecks.WithLabelValues(string(a.Type), string(st.Status)).Inc()
	return st
}

func passed(a domain.CriticalAlert) domain.AlertStatus {
	return domain.AlertStatus{Name: a.Name, Status: domain.AlertOK}
}

func failed(a domain.CriticalAlert, msg string) domain.AlertStatus {
	return domain.AlertStatus{Name: a.Name, Status: domain.AlertError, Message: msg}
}

func (p *Prober) checkPing(ctx context.Context, a domain.CriticalAlert) domain.AlertStatus {
	res, err := p.pinger.Ping(ctx, a.Target, p.pingTimeout)
	if err != nil {
		p.logger.Error("ping check failed",
			logger.String("alert", a.Name),
			logger.String("target", a.Target),
			logger.Error(err))
		return failed(a, err.Error())
	}
	if res.Alive {
		return passed(a)
	}
	msg := strings.TrimSpace(res.Output)
	if msg == "" {
		msg = "Host unreachable"
	}
	return failed(a, msg)
}

// fetch GETs the alert target. A non-2xx answer is returned as a status
// message, transport problems as err.
func (p *Prober) fetch(ctx context.Context, a domain.CriticalAlert) (body []byte, httpMsg string, err error) {
	ctx, cancel := context.WithTimeout(ctx, p.httpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.Target, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("invalid target: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || utils.IsTimeout(err) {
			return nil, "", fmt.Errorf("request timed out after %s", p.httpTimeout)
		}
		return nil, "", utils.Cause(err)
	}
	defer utils.DrainClose(resp.Body, 64<<10)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Sprintf("HTTP Error: %d %s", resp.StatusCode, utils.ReasonPhrase(resp)), nil
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, "", fmt.Errorf("reading response: %w", err)
	}
	return body, "", nil
}

func (p *Prober) logFetchError(kind string, a domain.CriticalAlert, err error) {
	fields := []logger.Field{
		logger.String("alert", a.Name),
		logger.String("target", a.Target),
	}
	if utils.IsQuietNetError(err) {
		p.logger.Warn(kind+" check target unreachable", fields...)
		return
	}
	p.logger.Error(kind+" check failed", append(fields, logger.Error(err))...)
}

func (p *Prober) checkJSON(ctx context.Context, a domain.CriticalAlert) domain.AlertStatus {
	body, httpMsg, err := p.fetch(ctx, a)
	if err != nil {
		p.logFetchError("web json", a, err)
		return failed(a, err.Error())
	}
	if httpMsg != "" {
		return failed(a, httpMsg)
	}

	// numbers decode to float64, matching how the target's JSON is read in a browser
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return failed(a, fmt.Sprintf("invalid JSON response: %v", err))
	}

	got, found := firstMatch(a.JSONPath, doc)
	if !found {
		return failed(a, fmt.Sprintf("JSONPath '%s' not found in response", a.JSONPath))
	}
	if s := domain.Stringify(got); s != a.ExpectedValue {
		return failed(a, fmt.Sprintf("Expected '%s' at '%s', but got '%s'", a.ExpectedValue, a.JSONPath, s))
	}
	return passed(a)
}

// firstMatch evaluates path and returns the first matched value. Paths with
// wildcards, filters, slices, unions or recursive descent yield a list of
// matches; plain paths yield the value itself.
func firstMatch(path string, doc any) (any, bool) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, false
	}
	if !isMultiMatch(path) {
		return v, true
	}
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

// isMultiMatch scans path outside quoted keys for recursive descent,
// wildcards, filters, and bracket unions or slices.
func isMultiMatch(path string) bool {
	var quote byte
	depth := 0
	for i := 0; i < len(path); i++ {
		c := path[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '[':
			depth++
		case ']':
			depth--
		case '*':
			return true
		case '.':
			if i+1 < len(path) && path[i+1] == '.' {
				return true
			}
		case '?':
			if i+1 < len(path) && path[i+1] == '(' {
				return true
			}
		case ',', ':':
			if depth > 0 {
				return true
			}
		}
	}
	return false
}

func (p *Prober) checkText(ctx context.Context, a domain.CriticalAlert) domain.AlertStatus {
	body, httpMsg, err := p.fetch(ctx, a)
	if err != nil {
		p.logFetchError("web text", a, err)
		return failed(a, err.Error())
	}
	if httpMsg != "" {
		return failed(a, httpMsg)
	}

	text := string(body)
	var problems []string
	if a.TextPresent != "" && !strings.Contains(text, a.TextPresent) {
		problems = append(problems, fmt.Sprintf("Expected text '%s' not found", a.TextPresent))
	}
	if a.TextAbsent != "" && strings.Contains(text, a.TextAbsent) {
		problems = append(problems, fmt.Sprintf("Unexpected text '%s' found", a.TextAbsent))
	}
	if len(problems) > 0 {
		return failed(a, strings.Join(problems, "; "))
	}
	return passed(a)
}
