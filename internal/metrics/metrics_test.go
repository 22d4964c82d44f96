package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamed0406/online/internal/metrics"
	"github.com/hamed0406/online/probe"
)

func TestRegistryExposesMetrics(t *testing.T) {
	metrics.ObserveAttempt(probe.Attempt{Role: probe.RolePrimary, Kind: probe.KindRefused, Elapsed: 3 * time.Millisecond})
	metrics.ObserveAttempt(probe.Attempt{Role: probe.RoleBackup, Elapsed: 2 * time.Millisecond})
	metrics.ObserveCheck(true)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("unexpected status code from metrics handler: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, line := range []string{
		`online_attempts_total{kind="refused",role="primary"} 1`,
		`online_attempts_total{kind="ok",role="backup"} 1`,
		`online_checks_total{result="online"} 1`,
		`online_up 1`,
		`online_attempt_duration_seconds_bucket{role="primary"`,
	} {
		if !strings.Contains(body, line) {
			t.Fatalf("expected %q in body:\n%s", line, body)
		}
	}
}
