package timesheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/warp/timesheet-engine/generic"
)

// Column layout of the timesheet dataset. The order is fixed.
const (
	colSequence = iota
	colWorker
	colDate
	colClockIn
	colClockOut
	colActual
	colAdjusted
	colProgram
	columnCount
)

// Header is the first row of a fresh timesheet dataset.
var Header = []string{
	"sequence", "worker_id", "date", "clock_in", "clock_out",
	"actual_hours", "adjusted_hours", "program",
}

// WorkerHeader is the first row of a fresh workers dataset.
var WorkerHeader = []string{"worker_id", "name"}

// RowError describes a data row that could not be decoded.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

// DecodeRows turns dataset rows (header first) into entries. Blank rows are
// skipped; malformed rows are skipped and reported so one bad hand edit does
// not block every worker.
func DecodeRows(rows [][]string) ([]Entry, []RowError) {
	var (
		entries []Entry
		skipped []RowError
	)
	for i := 1; i < len(rows); i++ {
		if blank(rows[i]) {
			continue
		}
		e, err := decodeRow(rows[i])
		if err != nil {
			skipped = append(skipped, RowError{Row: i + 1, Err: err})
			continue
		}
		e.Row = i + 1
		entries = append(entries, e)
	}
	return entries, skipped
}

func decodeRow(row []string) (Entry, error) {
	var (
		e   Entry
		err error
	)
	cell := func(i int) string { return strings.TrimSpace(generic.Cell(row, i)) }

	if s := cell(colSequence); s != "" {
		if e.Sequence, err = strconv.Atoi(s); err != nil {
			return e, fmt.Errorf("sequence %q: %w", s, err)
		}
	}
	if e.WorkerID = cell(colWorker); e.WorkerID == "" {
		return e, fmt.Errorf("missing worker id")
	}
	if e.Date, err = generic.ParseDate(cell(colDate)); err != nil {
		return e, err
	}
	if e.ClockIn, err = generic.ParseClock(cell(colClockIn)); err != nil {
		return e, err
	}
	if s := cell(colClockOut); s != "" {
		out, err := generic.ParseClock(s)
		if err != nil {
			return e, err
		}
		e.ClockOut = &out
	}
	if e.ActualHours, err = generic.ParseHours(cell(colActual)); err != nil {
		return e, fmt.Errorf("actual hours: %w", err)
	}
	if e.AdjustedHours, err = generic.ParseHours(cell(colAdjusted)); err != nil {
		return e, fmt.Errorf("adjusted hours: %w", err)
	}
	// Stored programs are not re-validated: an unknown label still reports.
	e.Program = Program(cell(colProgram))
	return e, nil
}

// EncodeEntry renders a full row.
func EncodeEntry(e Entry) []string {
	row := make([]string, columnCount)
	row[colSequence] = strconv.Itoa(e.Sequence)
	row[colWorker] = e.WorkerID
	row[colDate] = e.Date.String()
	row[colClockIn] = generic.FormatClock(e.ClockIn)
	copy(row[colClockOut:], encodeClose(e))
	row[colProgram] = string(e.Program)
	return row
}

// encodeClose renders the clock-out, actual and adjusted cells. All three
// are blank while the entry is open.
func encodeClose(e Entry) []string {
	if e.IsOpen() {
		return []string{"", "", ""}
	}
	return []string{
		generic.FormatClock(*e.ClockOut),
		generic.FormatHours(e.ActualHours),
		generic.FormatHours(e.AdjustedHours),
	}
}

// closeAddress is the A1 range of the clock-out..adjusted cells of a row.
func closeAddress(sheet string, row int) string {
	return generic.FormatRowRange(sheet, row, colClockOut, colAdjusted)
}

// nextSequence returns the sequence number for a row appended after rows.
func nextSequence(rows [][]string) int {
	n := 0
	for i := 1; i < len(rows); i++ {
		if !blank(rows[i]) {
			n++
		}
	}
	return n + 1
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
