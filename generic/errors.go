/*
errors.go - Error types shared by the store layer and the window calculator

PURPOSE:
  Sentinel errors for conditions that are not specific to timesheets:
  a store that cannot be reached, a write that lost a race, a bad cell
  address, an inverted date range. The timesheet package defines the
  session errors and wraps these where needed.

USAGE:
    if errors.Is(err, generic.ErrStoreUnavailable) {
        // surface to the caller, the engine never retries
    }

SEE ALSO:
  - store.go: RowStore contract, StoreError producers
  - timesheet/errors.go: session-level taxonomy
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStoreUnavailable is returned when a read, append or update against
	// the row store fails. The engine does not retry.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrConcurrentModification is returned by guarded writes when the rows
	// changed between the check and the write.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrInvalidAddress is returned for a malformed A1 address or one that
	// points outside the dataset.
	ErrInvalidAddress = errors.New("invalid cell address")

	// ErrInvalidRange is returned when a window ends before it starts.
	ErrInvalidRange = errors.New("invalid range: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// StoreError wraps a failure from the row store collaborator.
type StoreError struct {
	Op      string // "read", "append", "update"
	Dataset string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store unavailable: %s %s: %v", e.Op, e.Dataset, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// RangeError reports an inverted custom window.
type RangeError struct {
	Start TimePoint
	End   TimePoint
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s before start %s", e.End, e.Start)
}

func (e *RangeError) Unwrap() error {
	return ErrInvalidRange
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the same call might succeed later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrStoreUnavailable)
}
