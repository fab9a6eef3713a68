package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/warp/timesheet-engine/api"
	"github.com/warp/timesheet-engine/generic"
)

func newReportCommand(rootOpts *RootOptions) *cobra.Command {
	q := api.ReportQuery{}

	cmd := &cobra.Command{
		Use:   "report <worker-id>",
		Short: "Show a worker's sessions and program totals for a window",
		Long: `Show a worker's sessions and program totals.

Windows:
  --kind monthly [--year 2025 --month 3]   calendar month, current by default
  --kind payroll [--offset 1]              20th to 19th, 0 is the current period
  --kind custom --start 2025-03-03 --end 2025-03-17`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validator.New().Struct(q); err != nil {
				return WrapExitError(ExitCommandError, "report", err)
			}

			app, err := loadApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			window, err := api.ResolveWindow(q, generic.DateOf(app.Clock.Now()))
			if err != nil {
				return ledgerError("report", err)
			}
			report, err := app.Ledger.Report(cmd.Context(), args[0], window)
			if err != nil {
				return ledgerError("report", err)
			}

			out := output(cmd, rootOpts)
			if out.JSON() {
				return out.Encode(api.ToReportDTO(report))
			}

			out.Printf("%s: %s", report.WorkerID, report.Label)
			if len(report.Rows) == 0 {
				out.Printf("no sessions")
				return nil
			}
			rows := make([][]string, len(report.Rows))
			for i, r := range report.Rows {
				clockOut := r.ClockOut
				if r.Open {
					clockOut = "open"
				}
				rows[i] = []string{r.Date, string(r.Program), r.ClockIn, clockOut, generic.FormatHours(r.Hours)}
			}
			if err := out.Table([]string{"DATE", "PROGRAM", "IN", "OUT", "HOURS"}, rows); err != nil {
				return err
			}

			out.Printf("")
			totals := make([][]string, 0, len(report.Totals)+1)
			for _, t := range report.Totals {
				totals = append(totals, []string{t.Program, generic.FormatHours(t.Hours)})
			}
			totals = append(totals, []string{"Total", generic.FormatHours(report.TotalHours)})
			return out.Table([]string{"PROGRAM", "HOURS"}, totals)
		},
	}

	cmd.Flags().StringVar(&q.Kind, "kind", string(generic.WindowMonthly), "window kind (monthly|payroll|custom)")
	cmd.Flags().IntVar(&q.Year, "year", 0, "year of a monthly window")
	cmd.Flags().IntVar(&q.Month, "month", 0, "month of a monthly window (1-12)")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "payroll periods back from the current one")
	cmd.Flags().StringVar(&q.Start, "start", "", "first day of a custom window (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.End, "end", "", "last day of a custom window (YYYY-MM-DD)")

	return cmd
}

func newPeriodsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		n    int
		kind string
	)

	cmd := &cobra.Command{
		Use:   "periods",
		Short: "List recent payroll periods or months, current first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 1 {
				return WrapExitError(ExitCommandError, "periods", errors.New("-n must be at least 1"))
			}

			app, err := loadApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			today := generic.DateOf(app.Clock.Now())
			var windows []generic.Window
			switch generic.WindowKind(kind) {
			case generic.WindowPayroll:
				windows = generic.PayrollWindows(today, n)
			case generic.WindowMonthly:
				windows = generic.RecentMonths(today, n)
			default:
				return WrapExitError(ExitCommandError, "periods", fmt.Errorf("unknown kind %q", kind))
			}

			out := output(cmd, rootOpts)
			if out.JSON() {
				dtos := make([]api.PeriodDTO, len(windows))
				for i, w := range windows {
					dtos[i] = api.ToPeriodDTO(w)
				}
				return out.Encode(dtos)
			}
			rows := make([][]string, len(windows))
			for i, w := range windows {
				rows[i] = []string{strconv.Itoa(i), w.Label, w.Start.String(), w.End.String()}
			}
			return out.Table([]string{"OFFSET", "LABEL", "START", "END"}, rows)
		},
	}

	cmd.Flags().IntVarP(&n, "number", "n", 6, "how many periods to list")
	cmd.Flags().StringVar(&kind, "kind", string(generic.WindowPayroll), "period kind (payroll|monthly)")

	return cmd
}
