package timesheet

import (
	"errors"
	"fmt"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrUnknownWorker    = errors.New("unknown worker")
	ErrInvalidProgram   = errors.New("invalid program")
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNoOpenSession    = errors.New("no open session")
	ErrProgramMismatch  = errors.New("program mismatch")

	// ErrMultipleOpenSessions means the one-open-session invariant was broken
	// earlier. It is never resolved by picking a row.
	ErrMultipleOpenSessions = errors.New("multiple open sessions")

	// ErrInvalidInput is a contract violation such as negative hours.
	ErrInvalidInput = errors.New("invalid input")
)

// Re-exported so callers only need this package for the full taxonomy.
var (
	ErrInvalidRange     = generic.ErrInvalidRange
	ErrStoreUnavailable = generic.ErrStoreUnavailable
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidProgramError names the rejected program.
type InvalidProgramError struct {
	Program string
}

func (e *InvalidProgramError) Error() string {
	return fmt.Sprintf("invalid program %q", e.Program)
}

func (e *InvalidProgramError) Unwrap() error { return ErrInvalidProgram }

// AlreadyClockedInError carries the session that is still open.
type AlreadyClockedInError struct {
	WorkerID string
	Open     Entry
}

func (e *AlreadyClockedInError) Error() string {
	return fmt.Sprintf("worker %s already clocked in to %s since %s",
		e.WorkerID, e.Open.Program, generic.FormatClock(e.Open.ClockIn))
}

func (e *AlreadyClockedInError) Unwrap() error { return ErrAlreadyClockedIn }

// ProgramMismatchError reports a clock-out against the wrong program.
type ProgramMismatchError struct {
	WorkerID string
	Expected Program
	Actual   Program
}

func (e *ProgramMismatchError) Error() string {
	return fmt.Sprintf("worker %s is clocked in to %s, not %s", e.WorkerID, e.Actual, e.Expected)
}

func (e *ProgramMismatchError) Unwrap() error { return ErrProgramMismatch }

// MultipleOpenSessionsError lists the rows that are open at the same time.
type MultipleOpenSessionsError struct {
	WorkerID string
	Date     generic.TimePoint
	Rows     []int
}

func (e *MultipleOpenSessionsError) Error() string {
	return fmt.Sprintf("integrity violation: worker %s has %d open sessions on %s (rows %v)",
		e.WorkerID, len(e.Rows), e.Date, e.Rows)
}

func (e *MultipleOpenSessionsError) Unwrap() error { return ErrMultipleOpenSessions }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidProgram) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidInput)
}

// IsNotFound returns true if the error indicates a missing worker or session.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownWorker) || errors.Is(err, ErrNoOpenSession)
}

// IsConflict returns true if the request contradicts the current session state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyClockedIn) ||
		errors.Is(err, ErrProgramMismatch) ||
		errors.Is(err, generic.ErrConcurrentModification)
}
