package cli

import (
	"github.com/spf13/cobra"
	"github.com/warp/timesheet-engine/api"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

func newClockInCommand(rootOpts *RootOptions) *cobra.Command {
	var program string

	cmd := &cobra.Command{
		Use:   "clock-in <worker-id>",
		Short: "Open a session for a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := timesheet.ParseProgram(program)
			if err != nil {
				return WrapExitError(ExitFailure, "clock-in", err)
			}

			app, err := loadApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			entry, err := app.Ledger.ClockIn(cmd.Context(), args[0], p, app.Clock.Now())
			if err != nil {
				return ledgerError("clock-in", err)
			}

			out := output(cmd, rootOpts)
			if out.JSON() {
				return out.Encode(api.ToEntryDTO(entry))
			}
			out.Printf("%s clocked in to %s at %s on %s",
				entry.WorkerID, entry.Program, generic.FormatClock12(entry.ClockIn), entry.Date)
			return nil
		},
	}

	cmd.Flags().StringVarP(&program, "program", "p", "", "program to bill the session against")
	_ = cmd.MarkFlagRequired("program")

	return cmd
}

func newClockOutCommand(rootOpts *RootOptions) *cobra.Command {
	var program string

	cmd := &cobra.Command{
		Use:   "clock-out <worker-id>",
		Short: "Close a worker's open session",
		Long: `Close the worker's open session for today and record actual and
adjusted hours. With --program the open session must match it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := timesheet.ParseProgram(program)
			if err != nil {
				return WrapExitError(ExitFailure, "clock-out", err)
			}

			app, err := loadApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			entry, err := app.Ledger.ClockOut(cmd.Context(), args[0], p, app.Clock.Now())
			if err != nil {
				return ledgerError("clock-out", err)
			}

			out := output(cmd, rootOpts)
			if out.JSON() {
				return out.Encode(api.ToEntryDTO(entry))
			}
			out.Printf("%s clocked out of %s at %s: %s hours (%s actual)",
				entry.WorkerID, entry.Program, generic.FormatClock12(*entry.ClockOut),
				generic.FormatHours(entry.AdjustedHours), generic.FormatHours(entry.ActualHours))
			return nil
		},
	}

	cmd.Flags().StringVarP(&program, "program", "p", "", "expected program of the open session")

	return cmd
}

func newStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <worker-id>",
		Short: "Show a worker and today's open session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			worker, err := app.Ledger.Worker(ctx, args[0])
			if err != nil {
				return ledgerError("status", err)
			}
			open, err := app.Ledger.ActiveSession(ctx, worker.ID, app.Clock.Now())
			if err != nil {
				return ledgerError("status", err)
			}

			out := output(cmd, rootOpts)
			if out.JSON() {
				return out.Encode(api.WorkerDTO{ID: worker.ID, Name: worker.Name, ActiveSession: api.ToEntryDTO(open)})
			}
			if open == nil {
				out.Printf("%s (%s): not clocked in", worker.Name, worker.ID)
				return nil
			}
			out.Printf("%s (%s): clocked in to %s since %s",
				worker.Name, worker.ID, open.Program, generic.FormatClock12(open.ClockIn))
			return nil
		},
	}
}
