package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/hamed0406/online/internal/config"
)

func newPreflightCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check the API configuration before deploying it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := false
			fail := func(msg string) {
				failed = true
				fmt.Fprintln(out, red("✖"), msg)
			}
			warn := func(msg string) { fmt.Fprintln(out, yellow("⚠"), msg) }
			ok := func(msg string) { fmt.Fprintln(out, green("✔"), msg) }

			cfg, err := config.Parse(ro.configPath)
			if err != nil {
				return err
			}
			for _, e := range multierr.Errors(cfg.Validate()) {
				fail(e.Error())
			}

			if len(cfg.PublicAPIKeys) == 0 && len(cfg.AdminAPIKeys) == 0 {
				fail("PUBLIC_API_KEYS and ADMIN_API_KEYS are empty (the API is open to anyone).")
			} else if len(cfg.AdminAPIKeys) == 0 {
				warn("ADMIN_API_KEYS is empty (/metrics is open).")
			}
			for _, set := range []struct {
				name string
				keys []string
			}{{"ADMIN_API_KEYS", cfg.AdminAPIKeys}, {"PUBLIC_API_KEYS", cfg.PublicAPIKeys}} {
				for _, k := range set.keys {
					if strings.ContainsAny(k, " \t") {
						warn(set.name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
						break
					}
				}
			}

			ok(fmt.Sprintf("targets %s then %s (%s)", cfg.Primary, cfg.Backup, cfg.Strategy))
			if cfg.Timeout == "" {
				warn("CHECK_TIMEOUT empty; attempts are bounded only by the OS.")
			} else {
				ok("CHECK_TIMEOUT=" + cfg.Timeout)
			}
			if cfg.Interval == 0 {
				warn("CHECK_INTERVAL_MS is 0; the background monitor is disabled.")
			} else {
				ok("monitor every " + cfg.Interval.String())
			}
			ok("API_ADDR=" + cfg.Addr)

			if len(cfg.AllowedOrigins) == 0 {
				warn("ALLOWED_ORIGINS empty; any origin may call the API from a browser.")
			} else {
				ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
			}
			if cfg.SlackWebhook == "" {
				warn("SLACK_WEBHOOK empty; no alerts will be sent.")
			} else {
				ok("SLACK_WEBHOOK present")
			}

			if failed {
				fmt.Fprintln(out, red("✖"), "preflight failed")
				return exitCode(1)
			}
			ok("preflight passed")
			return nil
		},
	}
}
