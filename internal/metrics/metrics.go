// Package metrics holds the process-wide prometheus collectors.
// They are registered on the default registry and exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Health prober
	ProbeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkus_probe_total",
			Help: "Health probes by outcome",
		},
		[]string{"outcome"}, // online, offline, timeout, error
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "linkus_probe_duration_seconds",
			Help:    "Latency of completed health probes",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Plugins
	PluginRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkus_plugin_requests_total",
			Help: "Plugin requests by plugin and result",
		},
		[]string{"plugin", "result"}, // ok, not_found, forbidden, error, cached
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkus_upstream_duration_seconds",
			Help:    "Latency of upstream API calls made by plugins",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"source"},
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkus_upstream_errors_total",
			Help: "Upstream API failures by source and error kind",
		},
		[]string{"source", "kind"},
	)

	// Circuit breakers, one per upstream source
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "linkus_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkus_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Critical alerts
	AlertChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkus_alert_checks_total",
			Help: "Critical alert checks by type and status",
		},
		[]string{"type", "status"},
	)

	// Dashboard document
	ConfigReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkus_config_reloads_total",
			Help: "Dashboard document reloads by result",
		},
		[]string{"result"}, // success, failure
	)

	ConfigServices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linkus_config_services",
			Help: "Services in the active dashboard snapshot",
		},
	)
)

// ObserveUpstream records latency for one upstream call.
func ObserveUpstream(source string, d time.Duration) {
	UpstreamDuration.WithLabelValues(source).Observe(d.Seconds())
}
