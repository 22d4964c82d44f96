package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/online/internal/domain"
	"github.com/hamed0406/online/internal/repo"
	"github.com/hamed0406/online/probe"
)

// Checker is satisfied by *probe.Prober.
type Checker interface {
	Probe(ctx context.Context, timeout *time.Duration) probe.Report
}

// Summary counts what a Run did.
type Summary struct {
	Checks int
	Online int
}

type Monitor struct {
	Logger   *zap.Logger
	Checker  Checker
	Results  repo.ResultStore // optional
	Timeout  *time.Duration   // per-attempt bound handed to the checker; nil = OS decides
	Interval time.Duration    // pause between checks
	// Count stops the loop after that many checks; 0 means until ctx is done.
	Count uint
	// StopOnSuccess ends the loop after the first online result.
	StopOnSuccess bool
	// OnResult, when set, sees every recorded result.
	OnResult func(domain.CheckResult)
}

func NewMonitor(
	logger *zap.Logger,
	checker Checker,
	results repo.ResultStore,
	interval time.Duration,
	timeout *time.Duration,
) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval < 0 {
		interval = 0
	}
	return &Monitor{
		Logger:   logger,
		Checker:  checker,
		Results:  results,
		Interval: interval,
		Timeout:  timeout,
	}
}

// Run checks immediately, then once per Interval, until ctx is cancelled or
// a Count/StopOnSuccess limit is reached. With neither an Interval nor a
// Count the monitor is disabled and returns at once.
func (m *Monitor) Run(ctx context.Context) Summary {
	var s Summary
	if m.Interval == 0 && m.Count == 0 {
		m.Logger.Info("monitor_disabled")
		return s
	}

	for {
		if ctx.Err() != nil {
			m.Logger.Info("monitor_stopped", zap.Int("checks", s.Checks))
			return s
		}
		cr, ok := m.runOnce(ctx)
		if !ok {
			continue
		}
		s.Checks++
		if cr.Online {
			s.Online++
			if m.StopOnSuccess {
				m.Logger.Debug("monitor_stop_on_success", zap.Int("checks", s.Checks))
				return s
			}
		}
		if m.Count > 0 && uint(s.Checks) >= m.Count {
			return s
		}

		t := time.NewTimer(m.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
	}
}

// runOnce performs one check. It reports false when the check was cut short
// by cancellation; such results are not recorded.
func (m *Monitor) runOnce(ctx context.Context) (domain.CheckResult, bool) {
	rep := m.Checker.Probe(ctx, m.Timeout)
	if ctx.Err() != nil {
		return domain.CheckResult{}, false
	}
	cr := domain.FromReport(rep, time.Now())

	if m.Results != nil {
		if err := m.Results.Append(ctx, &cr); err != nil {
			m.Logger.Warn("monitor_append_error", zap.Error(err))
		}
	}
	m.Logger.Debug("monitor_checked",
		zap.Bool("online", cr.Online),
		zap.String("target", cr.Target),
		zap.String("role", cr.Role),
		zap.String("kind", cr.Kind),
		zap.Float64("latency_ms", cr.LatencyMS),
		zap.String("reason", cr.Reason),
	)
	if m.OnResult != nil {
		m.OnResult(cr)
	}
	return cr, true
}
