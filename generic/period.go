package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// WINDOW - The date interval a report covers
// =============================================================================

// Window is a reporting interval [Start, End], both days inclusive.
//
// Examples:
//   - Monthly March 2025: Mar 1 - Mar 31
//   - Payroll period ending April 2025: Mar 20 - Apr 19
//   - Custom: any start/end with End not before Start
type Window struct {
	Start TimePoint
	End   TimePoint
	Kind  WindowKind
	Label string
}

// WindowKind tags how a window was produced.
type WindowKind string

const (
	WindowMonthly WindowKind = "monthly" // first to last day of a calendar month
	WindowPayroll WindowKind = "payroll" // 20th of one month to 19th of the next
	WindowCustom  WindowKind = "custom"  // caller-supplied start and end
)

// PayrollStartDay is the day of month a payroll period starts on. The period
// ends the day before, one month later.
const PayrollStartDay = 20

// Contains returns true if the date is within [Start, End].
func (w Window) Contains(t TimePoint) bool {
	return t.AfterOrEqual(w.Start) && t.BeforeOrEqual(w.End)
}

// Days returns every day in the window.
func (w Window) Days() []TimePoint {
	var days []TimePoint
	for current := w.Start; current.BeforeOrEqual(w.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (w Window) String() string {
	return "[" + w.Start.String() + ", " + w.End.String() + "]"
}

// =============================================================================
// PAYROLL PERIOD CALCULATOR
// =============================================================================

// MonthWindow returns the calendar month as a window.
func MonthWindow(year int, month time.Month) Window {
	w := Window{
		Start: StartOfMonth(year, month),
		End:   EndOfMonth(year, month),
		Kind:  WindowMonthly,
	}
	w.Label = FormatLabel(w)
	return w
}

// PayrollWindow returns the payroll period that ends in the given month:
// the 20th of the preceding month through the 19th of endMonth.
func PayrollWindow(endYear int, endMonth time.Month) Window {
	end := NewTimePoint(endYear, endMonth, PayrollStartDay-1)
	start := NewTimePoint(endYear, endMonth-1, PayrollStartDay) // time.Date wraps January back to December
	w := Window{Start: start, End: end, Kind: WindowPayroll}
	w.Label = FormatLabel(w)
	return w
}

// PayrollWindowFor returns the payroll period containing date. Before the
// 20th the period ends this month, from the 20th on it ends next month.
func PayrollWindowFor(date TimePoint) Window {
	endYear, endMonth := date.Year(), date.Month()
	if date.Day() >= PayrollStartDay {
		next := StartOfMonth(endYear, endMonth).AddMonths(1)
		endYear, endMonth = next.Year(), next.Month()
	}
	return PayrollWindow(endYear, endMonth)
}

// PayrollWindows returns the n most recent payroll periods, current first.
// Each earlier period steps the end month back by one, wrapping years.
func PayrollWindows(today TimePoint, n int) []Window {
	if n <= 0 {
		return nil
	}
	current := PayrollWindowFor(today)
	endYear, endMonth := current.End.Year(), current.End.Month()

	windows := make([]Window, 0, n)
	for i := 0; i < n; i++ {
		windows = append(windows, PayrollWindow(endYear, endMonth))
		endMonth--
		if endMonth < time.January {
			endMonth = time.December
			endYear--
		}
	}
	return windows
}

// RecentMonths returns the n most recent calendar months, current first.
func RecentMonths(today TimePoint, n int) []Window {
	if n <= 0 {
		return nil
	}
	windows := make([]Window, 0, n)
	first := StartOfMonth(today.Year(), today.Month())
	for i := 0; i < n; i++ {
		m := first.AddMonths(-i)
		windows = append(windows, MonthWindow(m.Year(), m.Month()))
	}
	return windows
}

// CustomWindow returns [start, end]. End must not precede start.
func CustomWindow(start, end TimePoint) (Window, error) {
	if end.Before(start) {
		return Window{}, &RangeError{Start: start, End: end}
	}
	w := Window{Start: start, End: end, Kind: WindowCustom}
	w.Label = FormatLabel(w)
	return w, nil
}

// =============================================================================
// LABELS
// =============================================================================

// FormatLabel renders the human-readable window label:
//
//	monthly  "March 2025"
//	payroll  "Mar 20 - Apr 19, 2025"
//	custom   "Mar 3 - 17, 2025", "Mar 3 - Apr 17, 2025", "Dec 20, 2024 - Jan 5, 2025"
func FormatLabel(w Window) string {
	s, e := w.Start.Time, w.End.Time
	switch w.Kind {
	case WindowMonthly:
		return s.Format("January 2006")
	case WindowPayroll:
		return fmt.Sprintf("%s - %s, %d", s.Format("Jan 2"), e.Format("Jan 2"), e.Year())
	default:
		return customLabel(s, e)
	}
}

func customLabel(s, e time.Time) string {
	switch {
	case s.Equal(e):
		return s.Format("Jan 2, 2006")
	case s.Year() != e.Year():
		return s.Format("Jan 2, 2006") + " - " + e.Format("Jan 2, 2006")
	case s.Month() != e.Month():
		return s.Format("Jan 2") + " - " + e.Format("Jan 2, 2006")
	default:
		return fmt.Sprintf("%s - %d, %d", s.Format("Jan 2"), e.Day(), e.Year())
	}
}
