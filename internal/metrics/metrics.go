package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hamed0406/online/probe"
)

var (
	registry = prometheus.NewRegistry()

	checks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "online",
		Name:      "checks_total",
		Help:      "Connectivity checks by outcome (online, offline).",
	}, []string{"result"})

	attempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "online",
		Name:      "attempts_total",
		Help:      "Connection attempts by target role and error kind (ok on success).",
	}, []string{"role", "kind"})

	attemptLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "online",
		Name:      "attempt_duration_seconds",
		Help:      "Duration of single connection attempts in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"role"})

	up = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "online",
		Name:      "up",
		Help:      "Result of the last check (1=online, 0=offline).",
	})
)

func init() {
	registry.MustRegister(checks, attempts, attemptLatency, up)
}

// Registry returns the Prometheus registry containing all online metrics.
func Registry() *prometheus.Registry {
	return registry
}

// ObserveAttempt records one attempt; pass it to probe.WithObserver.
func ObserveAttempt(a probe.Attempt) {
	kind := string(a.Kind)
	if kind == "" {
		kind = "ok"
	}
	role := string(a.Role)
	attempts.WithLabelValues(role, kind).Inc()
	attemptLatency.WithLabelValues(role).Observe(a.Elapsed.Seconds())
}

// ObserveCheck records the outcome of a full check.
func ObserveCheck(online bool) {
	if online {
		checks.WithLabelValues("online").Inc()
		up.Set(1)
		return
	}
	checks.WithLabelValues("offline").Inc()
	up.Set(0)
}
