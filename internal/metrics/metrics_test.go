package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestProbeTotal(t *testing.T) {
	before := testutil.ToFloat64(ProbeTotal.WithLabelValues("online"))
	ProbeTotal.WithLabelValues("online").Inc()
	after := testutil.ToFloat64(ProbeTotal.WithLabelValues("online"))
	if after != before+1 {
		t.Errorf("ProbeTotal{online} = %v, want %v", after, before+1)
	}
}

func TestObserveUpstream(t *testing.T) {
	ObserveUpstream("Sonarr", 120*time.Millisecond)
	if n := testutil.CollectAndCount(UpstreamDuration); n < 1 {
		t.Errorf("UpstreamDuration series = %d, want >= 1", n)
	}
}

func TestCircuitBreakerState(t *testing.T) {
	CircuitBreakerState.WithLabelValues("test").Set(2)
	if v := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test")); v != 2 {
		t.Errorf("CircuitBreakerState = %v, want 2", v)
	}
}
