package cli

import (
	stdcontext "context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const appDesc = `Check whether this machine can reach the Internet by opening a TCP
connection to a primary endpoint, falling back to a backup one.

EXIT STATUS
  0 At least one check got through.
  2 No check got through.
  1 Any other error occurred.`

// exitCode is returned by commands to end the process with that status
// without printing an error.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

const exitOffline exitCode = 2

type rootOptions struct {
	configPath string
	jsonOutput bool
	noColor    bool
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "online",
		Short: "Am I online?",
		Long:  appDesc,
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor || opts.jsonOutput {
				color.NoColor = true
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "f", os.Getenv("ONLINE_CONFIG"), "Path to a YAML config file")
	root.PersistentFlags().BoolVarP(&opts.jsonOutput, "json", "j", false, "Output in JSON format")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable color output")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")

	bindCheck(root, opts)
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newPreflightCmd(opts))

	root.SilenceUsage = true
	root.SilenceErrors = true
	return root
}

// Run executes the CLI with args and returns the process exit status.
func Run(ctx stdcontext.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	var code exitCode
	switch {
	case err == nil:
		return 0
	case errors.As(err, &code):
		return int(code)
	}
	fmt.Fprintf(stderr, "online: %s\n", err)
	return 1
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
