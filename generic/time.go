package generic

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - Calendar date without a time component
// =============================================================================

// TimePoint is a calendar date. The time component is always midnight UTC so
// that two TimePoints compare equal exactly when they name the same day.
type TimePoint struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts the stored YYYY-MM-DD layout and the M/D/YYYY layout
// spreadsheets render dates with.
func ParseDate(s string) (TimePoint, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateLayout, "1/2/2006", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return TimePoint{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint   { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }
func (tp TimePoint) AddMonths(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, n, 0)} }

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }

func (tp TimePoint) String() string { return tp.Time.Format(dateLayout) }

// =============================================================================
// TIME OF DAY - Clock-in / clock-out cells
// =============================================================================

const clockLayout = "15:04:05"

// TimeOfDay returns the offset of t from its local midnight, truncated to seconds.
func TimeOfDay(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

// ParseClock parses an HH:MM:SS (or HH:MM) cell into a time-of-day offset.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{clockLayout, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q (use HH:MM:SS)", s)
}

// FormatClock renders a time-of-day offset as HH:MM:SS.
func FormatClock(tod time.Duration) string {
	return time.Time{}.Add(tod).Format(clockLayout)
}

// FormatClock12 renders a time-of-day offset for display, e.g. "03:04 PM".
func FormatClock12(tod time.Duration) string {
	return time.Time{}.Add(tod).Format("03:04 PM")
}

// =============================================================================
// CLOCK - Single authoritative time source
// =============================================================================

// Clock is the one place the engine reads "now" from. Callers read it once per
// operation and pass the value down.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// =============================================================================
// TIME UTILITIES
// =============================================================================

func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }

// EndOfMonth returns the last day of the month, leap years included.
func EndOfMonth(year int, month time.Month) TimePoint {
	return TimePoint{Time: time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int { return EndOfMonth(year, month).Day() }
