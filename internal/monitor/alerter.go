package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/online/internal/notify"
	"github.com/hamed0406/online/internal/repo"
)

// AlertKey is the alert-state key of the connectivity probe.
const AlertKey = "internet"

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

// Alerter notifies when the latest check flips between online and offline.
type Alerter struct {
	logger   *zap.Logger
	results  repo.ResultStore
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
}

func NewAlerter(
	logger *zap.Logger,
	results repo.ResultStore,
	alertDB repo.AlertStore,
	notifier notify.Notifier,
	cfg AlerterConfig,
) *Alerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Alerter{
		logger:   logger,
		results:  results,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	if a.cfg.PollInterval <= 0 {
		return fmt.Errorf("alerter: poll interval must be positive, got %v", a.cfg.PollInterval)
	}
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	// initial pass
	a.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			a.scan(ctx)
		}
	}
}

func (a *Alerter) scan(ctx context.Context) {
	if err := a.scanOnce(ctx); err != nil {
		a.logger.Warn("alerter_scan_error", zap.Error(err))
	}
}

func (a *Alerter) scanOnce(ctx context.Context) error {
	r, err := a.results.Latest(ctx)
	if err != nil {
		return err
	}
	if r == nil {
		return nil
	}

	rec, err := a.alertDB.Get(ctx, AlertKey)
	if err != nil {
		return err
	}
	now := time.Now()

	stateChanged := rec == nil || rec.LastState != r.Online

	// Cooldown only matters for OFFLINE alerts (suppresses flapping).
	cooled := true
	if rec != nil && rec.LastSentAt != nil {
		cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
	}

	offlineAlert := stateChanged && !r.Online && cooled
	// A first-ever online result is not a recovery.
	recoveryAlert := stateChanged && r.Online && rec != nil && a.cfg.AlertOnRecovery

	if offlineAlert || recoveryAlert {
		title := "🔴 Internet OFFLINE"
		if r.Online {
			title = "🟢 Internet back ONLINE"
		}

		via := "n/a"
		if r.Target != "" {
			via = fmt.Sprintf("%s (%s)", r.Target, r.Role)
		}
		reason := r.Reason
		if reason == "" {
			reason = "-"
		}
		text := fmt.Sprintf(
			"Via: %s\nLatency: %.0f ms\nKind: %s\nReason: %s\nChecked: %s",
			via, r.LatencyMS, r.Kind, reason, r.CheckedAt.Format(time.RFC3339),
		)

		if err := a.notifier.Send(ctx, title, text); err != nil {
			a.logger.Warn("alerter_send_error", zap.String("title", title), zap.Error(err))
		}
		return a.alertDB.Set(ctx, AlertKey, r.Online, now)
	}

	// State changed without a send (offline within cooldown, recovery
	// alerts disabled, first online result): record it anyway.
	if stateChanged {
		return a.alertDB.Set(ctx, AlertKey, r.Online, time.Time{})
	}
	return nil
}
