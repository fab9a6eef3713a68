package timesheet

import (
	"github.com/shopspring/decimal"
	"github.com/warp/timesheet-engine/generic"
)

// DisplayRow is one history line as handed to the presentation layer.
type DisplayRow struct {
	Date     string
	Program  Program
	ClockIn  string // "03:04 PM"
	ClockOut string // empty while the session is open
	Hours    decimal.Decimal
	Open     bool
}

// Report is everything the presentation and document collaborators need.
type Report struct {
	WorkerID   string
	Window     generic.Window
	Label      string
	Rows       []DisplayRow
	Totals     []ProgramTotal
	TotalHours decimal.Decimal
}

// BuildReport formats entries (already filtered to the window) for display.
func BuildReport(workerID string, w generic.Window, entries []Entry, categories map[Program]string) *Report {
	rows := make([]DisplayRow, 0, len(entries))
	for _, e := range entries {
		row := DisplayRow{
			Date:    e.Date.String(),
			Program: e.Program,
			ClockIn: generic.FormatClock12(e.ClockIn),
			Hours:   e.AdjustedHours,
			Open:    e.IsOpen(),
		}
		if !e.IsOpen() {
			row.ClockOut = generic.FormatClock12(*e.ClockOut)
		}
		rows = append(rows, row)
	}

	label := w.Label
	if label == "" {
		label = generic.FormatLabel(w)
	}
	totals := Aggregate(entries, categories)
	return &Report{
		WorkerID:   workerID,
		Window:     w,
		Label:      label,
		Rows:       rows,
		Totals:     totals,
		TotalHours: TotalHours(totals),
	}
}
