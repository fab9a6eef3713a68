package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/timesheet-engine/config"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "text" | "json"

	// Clock replaces the system clock; tests pin it.
	Clock generic.Clock
	// Override adjusts the loaded configuration before the app is built.
	Override func(*config.Config)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the timesheet CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timesheet",
		Short: "Attendance sessions and program hours for part-time staff",
		Long: `Clock workers in and out of programs, reconcile billable hours against
program caps and report totals per month, payroll period or custom range.

Configuration comes from the environment (STORE_BACKEND, SQLITE_PATH,
TIMEZONE, CACHE_BACKEND, ...). Run "timesheet serve" for the HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newClockInCommand(opts))
	cmd.AddCommand(newClockOutCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newReportCommand(opts))
	cmd.AddCommand(newPeriodsCommand(opts))
	cmd.AddCommand(newWorkerCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadApp reads configuration, initialises the logger and wires the engine.
func loadApp(cmd *cobra.Command, opts *RootOptions) (*App, error) {
	ctx := cmd.Context()
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "configuration", err)
	}
	if opts.Override != nil {
		opts.Override(cfg)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: cmd.ErrOrStderr(),
	})

	app, err := NewApp(ctx, cfg, log, opts.Clock)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "startup", err)
	}
	return app, nil
}

func output(cmd *cobra.Command, opts *RootOptions) *Output {
	return &Output{Format: opts.Format, Writer: cmd.OutOrStdout()}
}
