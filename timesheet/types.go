// Package timesheet implements attendance sessions for part-time staff:
// clock-in/clock-out against named programs, hours reconciliation and
// program totals over reporting windows. It uses the generic package for
// dates, windows and the row store.
package timesheet

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// PROGRAMS
// =============================================================================

// Program is the activity a session is billed against.
type Program string

const (
	ProgramRawdat      Program = "Rawdat"
	ProgramRawdatAdmin Program = "Rawdat + Admin Work"
	ProgramSigaar      Program = "Sigaar"
	ProgramMukhayyam   Program = "Mukhayyam"
	ProgramKibaar      Program = "Kibaar"
	ProgramCamp        Program = "Camp"

	// ProgramUnspecified skips the program check on clock-out.
	ProgramUnspecified Program = ""
)

// Programs is the fixed enumeration, in display order.
var Programs = []Program{
	ProgramRawdat,
	ProgramRawdatAdmin,
	ProgramSigaar,
	ProgramMukhayyam,
	ProgramKibaar,
	ProgramCamp,
}

// Valid reports whether p is one of the enumerated programs.
func (p Program) Valid() bool {
	for _, known := range Programs {
		if p == known {
			return true
		}
	}
	return false
}

func (p Program) String() string { return string(p) }

// ParseProgram matches s against the enumeration, ignoring surrounding space
// and case. An empty string yields ProgramUnspecified.
func ParseProgram(s string) (Program, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ProgramUnspecified, nil
	}
	for _, known := range Programs {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return ProgramUnspecified, &InvalidProgramError{Program: s}
}

// =============================================================================
// WORKER
// =============================================================================

// Worker is read-only reference data owned by an external directory.
type Worker struct {
	ID   string
	Name string
}

// =============================================================================
// ENTRY - One attendance session
// =============================================================================

// Entry is one attendance session. It is open while ClockOut is nil.
//
// Date is assigned at clock-in and never changes. ActualHours and
// AdjustedHours stay zero until the clock-out that closes the entry.
type Entry struct {
	Row           int // 1-based row in the dataset, header is row 1
	Sequence      int
	WorkerID      string
	Date          generic.TimePoint
	ClockIn       time.Duration  // time of day
	ClockOut      *time.Duration // time of day, nil while open
	ActualHours   decimal.Decimal
	AdjustedHours decimal.Decimal
	Program       Program
}

// IsOpen reports whether the session has not been clocked out.
func (e Entry) IsOpen() bool { return e.ClockOut == nil }
