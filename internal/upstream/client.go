// Package upstream is the outbound JSON client shared by plugin routines.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/logger"
	"github.com/MrSnakeDoc/linkus/internal/metrics"
	"github.com/MrSnakeDoc/linkus/internal/utils"
	"github.com/MrSnakeDoc/linkus/internal/version"
)

const (
	DefaultTimeout = 15 * time.Second
	maxBody        = 8 << 20
)

// Request describes one GET against a third-party API.
type Request struct {
	Source  string     // human label used in messages, ex: "Sonarr"
	URL     string     // endpoint without query
	Query   url.Values // includes the API key
	Timeout time.Duration
}

// BreakerSettings tunes the per-upstream circuit breaker.
type BreakerSettings struct {
	ConsecutiveFailures uint32        // trips after this many failures in a row
	OpenTimeout         time.Duration // time spent open before probing again
}

var DefaultBreaker = BreakerSettings{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second}

// Client performs JSON GETs with a hard timeout and a circuit per upstream.
// Nothing is retried.
type Client struct {
	http     *http.Client
	logger   logger.Logger
	breaker  BreakerSettings
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
}

func New(log logger.Logger, settings BreakerSettings) *Client {
	if settings.ConsecutiveFailures == 0 {
		settings = DefaultBreaker
	}
	return &Client{
		http:     &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		logger:   log,
		breaker:  settings,
		breakers: make(map[string]*gobreaker.CircuitBreaker[[]byte]),
	}
}

// GetJSON fetches req and decodes the body into out. Errors are *domain.Error
// with kind timeout, transport or parse.
func (c *Client) GetJSON(ctx context.Context, req Request, out any) error {
	body, err := c.Get(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		metrics.UpstreamErrors.WithLabelValues(req.Source, domain.KindParse.String()).Inc()
		return domain.Wrap(domain.KindParse, req.Source, err,
			fmt.Sprintf("failed to parse JSON response: %v", err))
	}
	return nil
}

// Get returns the raw body of a successful (2xx) response.
func (c *Client) Get(ctx context.Context, req Request) ([]byte, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	u, err := url.Parse(req.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, domain.Errorf(domain.KindConfiguration, req.Source, "%s base URL %q is invalid", req.Source, req.URL)
	}
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	cb := c.breakerFor(req.Source, u.Host)

	start := time.Now()
	body, err := cb.Execute(func() ([]byte, error) {
		return c.do(ctx, u, timeout, req.Source)
	})
	metrics.ObserveUpstream(req.Source, time.Since(start))

	if err == nil {
		return body, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.UpstreamErrors.WithLabelValues(req.Source, "circuit_open").Inc()
		return nil, domain.Wrap(domain.KindTransport, req.Source, err,
			fmt.Sprintf("%s temporarily unavailable (circuit open)", req.Source))
	}

	metrics.UpstreamErrors.WithLabelValues(req.Source, domain.KindOf(err).String()).Inc()
	c.log(req.Source, redact(u), err)
	return nil, err
}

func (c *Client) do(ctx context.Context, u *url.URL, timeout time.Duration, source string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, domain.Wrap(domain.KindConfiguration, source, err, fmt.Sprintf("%s request could not be built", source))
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || utils.IsTimeout(err) {
			return nil, domain.Wrap(domain.KindTimeout, source, err,
				fmt.Sprintf("%s request timed out after %s", source, humanDuration(timeout)))
		}
		cause := utils.Cause(err)
		return nil, domain.Wrap(domain.KindTransport, source, cause,
			fmt.Sprintf("%s request failed: %v", source, cause))
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, domain.Errorf(domain.KindTransport, source, "%s HTTP error! status: %d", source, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.Wrap(domain.KindTimeout, source, err,
				fmt.Sprintf("%s request timed out after %s", source, humanDuration(timeout)))
		}
		return nil, domain.Wrap(domain.KindTransport, source, err, fmt.Sprintf("%s response could not be read", source))
	}
	return body, nil
}

func (c *Client) log(source, target string, err error) {
	fields := []logger.Field{
		logger.String("source", source),
		logger.String("url", target),
		logger.String("kind", domain.KindOf(err).String()),
	}
	if utils.IsQuietNetError(err) {
		c.logger.Warn("upstream unreachable", fields...)
		return
	}
	c.logger.Error("upstream request failed", append(fields, logger.Error(err))...)
}

func (c *Client) breakerFor(source, host string) *gobreaker.CircuitBreaker[[]byte] {
	name := source + "@" + host

	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[name]; ok {
		return cb
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	threshold := c.breaker.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     c.breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller hanging up is not the upstream's fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change",
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	c.breakers[name] = cb
	return cb
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// redact hides API keys before a URL reaches a log line.
func redact(u *url.URL) string {
	c := *u
	q := c.Query()
	for _, k := range []string{"apikey", "api_key", "apiKey"} {
		if q.Has(k) {
			q.Set(k, "***")
		}
	}
	c.RawQuery = q.Encode()
	return c.String()
}

// humanDuration prints whole seconds as "15 seconds" and anything else as a Go duration.
func humanDuration(d time.Duration) string {
	if d%time.Second == 0 {
		secs := int64(d / time.Second)
		if secs == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", secs)
	}
	return d.String()
}
