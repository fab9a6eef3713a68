package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/warp/timesheet-engine/api"
	"github.com/warp/timesheet-engine/timesheet"
)

func newWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage the local worker directory",
		Long: `Manage the workers dataset of a local store. With the Google Sheets
backend the directory is maintained in the spreadsheet itself.`,
	}
	cmd.AddCommand(newWorkerAddCommand(rootOpts))
	cmd.AddCommand(newWorkerListCommand(rootOpts))
	return cmd
}

func newWorkerAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <worker-id> <name...>",
		Short: "Register a worker",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			w := timesheet.Worker{ID: args[0], Name: strings.Join(args[1:], " ")}
			if err := app.Directory.Add(cmd.Context(), w); err != nil {
				return ledgerError("worker add", err)
			}
			out := output(cmd, rootOpts)
			if out.JSON() {
				return out.Encode(api.WorkerDTO{ID: w.ID, Name: w.Name})
			}
			out.Printf("added %s (%s)", w.Name, w.ID)
			return nil
		},
	}
}

func newWorkerListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			workers, err := app.Directory.List(cmd.Context())
			if err != nil {
				return ledgerError("worker list", err)
			}
			out := output(cmd, rootOpts)
			if out.JSON() {
				dtos := make([]api.WorkerDTO, len(workers))
				for i, w := range workers {
					dtos[i] = api.WorkerDTO{ID: w.ID, Name: w.Name}
				}
				return out.Encode(dtos)
			}
			rows := make([][]string, len(workers))
			for i, w := range workers {
				rows[i] = []string{w.ID, w.Name}
			}
			return out.Table([]string{"ID", "NAME"}, rows)
		},
	}
}
