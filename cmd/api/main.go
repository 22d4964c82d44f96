package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/online/internal/config"
	"github.com/hamed0406/online/internal/domain"
	"github.com/hamed0406/online/internal/httpapi"
	apimw "github.com/hamed0406/online/internal/httpapi/middleware"
	"github.com/hamed0406/online/internal/logging"
	"github.com/hamed0406/online/internal/metrics"
	"github.com/hamed0406/online/internal/monitor"
	"github.com/hamed0406/online/internal/notify"
	"github.com/hamed0406/online/internal/repo/memory"
	"github.com/hamed0406/online/probe"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("api_exit", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timeout, err := cfg.CheckTimeout()
	if err != nil {
		return err
	}
	popts, err := cfg.ProberOptions()
	if err != nil {
		return err
	}
	prober := probe.New(append(popts,
		probe.WithLogger(logger),
		probe.WithObserver(metrics.ObserveAttempt),
	)...)

	store := memory.New(memory.DefaultCapacity)

	mon := monitor.NewMonitor(logger, prober, store, cfg.Interval, timeout)
	mon.OnResult = func(cr domain.CheckResult) { metrics.ObserveCheck(cr.Online) }

	api := httpapi.NewServer(logger, prober, store, timeout)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("api_shutdown")
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		logger.Info("monitor_start",
			zap.String("primary", cfg.Primary),
			zap.String("backup", cfg.Backup),
			zap.String("strategy", cfg.Strategy),
			zap.Duration("interval", cfg.Interval),
		)
		mon.Run(gctx)
		return nil
	})

	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		poll := cfg.Interval
		if poll <= 0 {
			poll = 30 * time.Second
		}
		alerter := monitor.NewAlerter(logger, store, store, notify.Multi{slack}, monitor.AlerterConfig{
			AlertOnRecovery: cfg.AlertOnRecovery,
			Cooldown:        cfg.AlertCooldown,
			PollInterval:    poll,
		})
		g.Go(func() error { return alerter.Run(gctx) })
	} else {
		logger.Info("alerts_disabled")
	}

	return g.Wait()
}
