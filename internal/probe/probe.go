// Package probe implements the dashboard's HTTP health checks.
package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/logger"
	"github.com/MrSnakeDoc/linkus/internal/metrics"
	"github.com/MrSnakeDoc/linkus/internal/utils"
	"github.com/MrSnakeDoc/linkus/internal/version"
)

// DefaultTimeout bounds every probe.
const DefaultTimeout = 10 * time.Second

// Prober performs GET requests against validated targets.
type Prober struct {
	client  *http.Client
	timeout time.Duration
	logger  logger.Logger
}

// New builds a Prober. Certificate verification is disabled: homelab services
// commonly run self-signed certificates, and targets are restricted to the
// configured service list before they reach the prober.
func New(timeout time.Duration, log logger.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: timeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // self-signed homelab certificates
		},
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}

	log.Info("health prober initialized, TLS certificate verification disabled",
		logger.Duration("timeout", timeout))

	return &Prober{
		client:  &http.Client{Transport: transport},
		timeout: timeout,
		logger:  log,
	}
}

// Probe checks checkURL once. It never returns an error: every failure is
// reported as an offline status.
func (p *Prober) Probe(ctx context.Context, checkURL string, headers map[string]string) domain.ServiceStatus {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, http.NoBody)
	if err != nil {
		metrics.ProbeTotal.WithLabelValues("error").Inc()
		return domain.Offline(fmt.Sprintf("invalid check url: %v", err))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", version.UserAgent())
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return p.failure(ctx, checkURL, err)
	}
	// Only the status line matters. The body is closed unread: streaming
	// targets (SSE, long-poll) would otherwise hold the probe until timeout.
	utils.Close(resp.Body)

	metrics.ProbeDuration.Observe(elapsed.Seconds())

	code := resp.StatusCode
	ms := elapsed.Milliseconds()
	online := code >= 200 && code < 300
	if online {
		metrics.ProbeTotal.WithLabelValues("online").Inc()
	} else {
		metrics.ProbeTotal.WithLabelValues("offline").Inc()
	}

	return domain.ServiceStatus{
		Online:       online,
		Status:       &code,
		StatusText:   utils.ReasonPhrase(resp),
		ResponseTime: &ms,
	}
}

func (p *Prober) failure(ctx context.Context, checkURL string, err error) domain.ServiceStatus {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || utils.IsTimeout(err):
		metrics.ProbeTotal.WithLabelValues("timeout").Inc()
		p.logger.Warn("health probe timed out",
			logger.String("url", checkURL),
			logger.Duration("timeout", p.timeout))
		return domain.Offline(fmt.Sprintf("request timed out after %s", p.timeout))

	case errors.Is(err, context.Canceled):
		metrics.ProbeTotal.WithLabelValues("error").Inc()
		return domain.Offline("request canceled")

	case utils.IsQuietNetError(err):
		metrics.ProbeTotal.WithLabelValues("offline").Inc()
		p.logger.Warn("health probe target unreachable",
			logger.String("url", checkURL))
		return domain.Offline(utils.Cause(err).Error())

	default:
		metrics.ProbeTotal.WithLabelValues("error").Inc()
		p.logger.Error("health probe failed",
			logger.String("url", checkURL),
			logger.Error(err))
		return domain.Offline(utils.Cause(err).Error())
	}
}
