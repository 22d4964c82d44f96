package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/online/internal/domain"
)

func newStatusCmd(ro *rootOptions) *cobra.Command {
	var (
		api     string
		key     string
		live    bool
		timeout time.Duration
	)
	api = os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest check recorded by a running online-api",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base := strings.TrimRight(strings.TrimSpace(api), "/")
			if !strings.Contains(base, "://") {
				base = "http://" + base
			}
			if _, err := url.ParseRequestURI(base); err != nil {
				return fmt.Errorf("invalid API address %q", api)
			}
			path := "/api/status"
			if live {
				path = "/api/online"
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, base+path, nil)
			if err != nil {
				return err
			}
			if key != "" {
				req.Header.Set("X-API-Key", key)
			}
			client := &http.Client{Timeout: timeout}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("contacting API: %w", err)
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusOK, http.StatusServiceUnavailable:
			case http.StatusNotFound:
				return errors.New("the API has not recorded any check yet")
			default:
				var body struct {
					Error string `json:"error"`
				}
				_ = json.NewDecoder(resp.Body).Decode(&body)
				if body.Error != "" {
					return fmt.Errorf("API returned %s: %s", resp.Status, body.Error)
				}
				return fmt.Errorf("API returned status: %s", resp.Status)
			}

			var cr domain.CheckResult
			if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
				return fmt.Errorf("decoding API response: %w", err)
			}
			out := cmd.OutOrStdout()
			if err := printResult(out, cr, ro.jsonOutput); err != nil {
				return err
			}
			if !ro.jsonOutput {
				fmt.Fprintf(out, "Online? %t\t%s\n", cr.Online, faint("checked "+cr.CheckedAt.Local().Format(time.RFC3339)))
			}
			if !cr.Online {
				return exitOffline
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&api, "api", api, "Base URL of the API (env API_BASE)")
	cmd.Flags().StringVar(&key, "key", os.Getenv("API_KEY"), "API key sent as X-API-Key (env API_KEY)")
	cmd.Flags().BoolVar(&live, "live", false, "Ask the API to run a live check instead of reading the last one")
	cmd.Flags().DurationVar(&timeout, "http-timeout", 30*time.Second, "Timeout for the API request")
	return cmd
}
