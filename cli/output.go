package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/warp/timesheet-engine/timesheet"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the ledger refused the operation
	ExitCommandError = 2 // bad flags, configuration or an unreachable store
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ledgerError classifies a ledger error for the exit code.
func ledgerError(message string, err error) error {
	if timesheet.IsClientError(err) || timesheet.IsNotFound(err) || timesheet.IsConflict(err) {
		return WrapExitError(ExitFailure, message, err)
	}
	return WrapExitError(ExitCommandError, message, err)
}

// Output writes command results as aligned text or JSON.
type Output struct {
	Format string
	Writer io.Writer
}

// JSON reports whether results are written as JSON.
func (o *Output) JSON() bool { return o.Format == "json" }

// Encode writes v as indented JSON.
func (o *Output) Encode(v any) error {
	enc := json.NewEncoder(o.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table writes tab-separated lines as aligned columns.
func (o *Output) Table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(o.Writer, 0, 0, 2, ' ', 0)
	writeLine(tw, header)
	for _, row := range rows {
		writeLine(tw, row)
	}
	return tw.Flush()
}

// Printf writes a line of text output.
func (o *Output) Printf(format string, args ...any) {
	fmt.Fprintf(o.Writer, format+"\n", args...)
}

func writeLine(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}
