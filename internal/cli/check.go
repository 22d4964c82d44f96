package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/online/internal/config"
	"github.com/hamed0406/online/internal/domain"
	"github.com/hamed0406/online/internal/logging"
	"github.com/hamed0406/online/internal/monitor"
	"github.com/hamed0406/online/probe"
)

type checkOptions struct {
	timeout  string
	strategy string
	primary  string
	backup   string
	proxy    string
	count    uint
	delay    time.Duration
	stop     bool
}

// bindCheck makes the root command itself run the connectivity check.
func bindCheck(root *cobra.Command, ro *rootOptions) {
	opts := &checkOptions{}

	f := root.Flags()
	f.StringVarP(&opts.timeout, "timeout", "t", "", `Bound for each attempt, in seconds ("5") or as a duration ("1500ms"); unset lets the OS decide`)
	f.StringVarP(&opts.strategy, "strategy", "s", "", "How the bound is enforced: blocking, async or clock")
	f.StringVar(&opts.primary, "primary", "", "Primary host:port (default "+string(probe.DefaultPrimary)+")")
	f.StringVar(&opts.backup, "backup", "", "Backup host:port (default "+string(probe.DefaultBackup)+")")
	f.StringVar(&opts.proxy, "proxy", "", "Dial through a proxy, e.g. socks5://127.0.0.1:1080 (clock strategy)")
	f.UintVarP(&opts.count, "count", "c", 1, "Number of checks, 0 runs until interrupted")
	f.DurationVarP(&opts.delay, "delay", "d", 500*time.Millisecond, "Delay between checks")
	f.BoolVar(&opts.stop, "stop", false, "Stop after the first successful check")

	root.RunE = func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, ro, opts)
	}
}

func (o *checkOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if f.Changed("strategy") {
		cfg.Strategy = o.strategy
	}
	if f.Changed("primary") {
		cfg.Primary = o.primary
	}
	if f.Changed("backup") {
		cfg.Backup = o.backup
	}
	if f.Changed("proxy") {
		cfg.ProxyURL = o.proxy
	}
}

func runCheck(cmd *cobra.Command, ro *rootOptions, opts *checkOptions) error {
	cfg, err := config.Parse(ro.configPath)
	if err != nil {
		return err
	}
	opts.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if opts.count == 0 && opts.delay <= 0 {
		return errors.New("--count 0 needs a positive --delay")
	}

	timeout, err := cfg.CheckTimeout()
	if err != nil {
		return err
	}
	popts, err := cfg.ProberOptions()
	if err != nil {
		return err
	}
	logger := logging.NewConsole(cmd.ErrOrStderr(), ro.verbose)
	defer func() { _ = logger.Sync() }()

	prober := probe.New(append(popts, probe.WithLogger(logger))...)

	out := cmd.OutOrStdout()
	var printErr error
	m := monitor.NewMonitor(logger, prober, nil, opts.delay, timeout)
	m.Count = opts.count
	m.StopOnSuccess = opts.stop
	m.OnResult = func(cr domain.CheckResult) {
		if err := printResult(out, cr, ro.jsonOutput); err != nil && printErr == nil {
			printErr = err
		}
	}

	logger.Debug("check_start",
		logStrings("primary", cfg.Primary, "backup", cfg.Backup, "strategy", cfg.Strategy, "timeout", cfg.Timeout)...,
	)
	sum := m.Run(cmd.Context())
	if printErr != nil {
		return printErr
	}

	online := sum.Online > 0
	if !ro.jsonOutput {
		fmt.Fprintf(out, "Online? %t\n", online)
	}
	if !online {
		return exitOffline
	}
	return nil
}

func printResult(w io.Writer, cr domain.CheckResult, jsonOutput bool) error {
	if jsonOutput {
		b, err := json.Marshal(cr)
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	_, err := fmt.Fprintln(w, resultLine(cr))
	return err
}
