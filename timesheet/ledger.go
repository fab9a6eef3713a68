/*
ledger.go - Session ledger: clock-in / clock-out orchestration

PURPOSE:
  Coordinates the session state machine against the external row store.
  Every clock operation is a read-check-write: read today's rows, confirm
  the worker's session state, then append or update one row.

INVARIANT:
  At most one open entry per (worker, date).

  The ledger protects it at two levels:
  1. In process: a per-worker mutex serializes clock operations.
  2. Across processes: when the store implements generic.GuardedStore the
     check runs on rows read inside the store's own lock or transaction.

  On a plain RowStore the check reads through generic.ReadFresh, so a
  read cache in front of the store never feeds the decision. The hosted
  spreadsheet offers no lock, so two processes clocking the same worker
  in at the same instant can both see "no open session" and both append. That race is accepted and documented;
  the tracker surfaces the result as MultipleOpenSessionsError.

LIFECYCLE OF AN ENTRY:
  ClockIn:  appends [seq, worker, date, in, "", "", "", program]   (open)
  ClockOut: writes    [out, actual, adjusted] into the same row     (closed)
  Entries are never deleted or re-derived afterwards.

TIME:
  Callers read "now" once from a generic.Clock and pass it in. Elapsed
  hours are clock-out time-of-day minus clock-in time-of-day on the stored
  date, so a session crossing midnight is not found the next day. A
  clock-out earlier than the stored clock-in is rejected with
  ErrInvalidInput and the entry stays open.

CANCELLATION:
  Once a clock operation starts it runs to completion or fails; the
  caller's cancellation is detached before the store is touched.

SEE ALSO:
  - tracker.go: open-session lookup
  - policies.go: hours adjustment
  - generic/store.go: RowStore and GuardedStore
*/
package timesheet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/timesheet-engine/generic"
)

// Datasets names where timesheet and worker rows live.
type Datasets struct {
	Timesheet      string
	TimesheetRange string
	Workers        string
	WorkersRange   string
}

// DefaultDatasets is the layout of the hosted timesheet and worker sheets.
func DefaultDatasets() Datasets {
	return Datasets{
		Timesheet:      "timesheet",
		TimesheetRange: "Sheet1!A:H",
		Workers:        "workers",
		WorkersRange:   "Sheet1!A:B",
	}
}

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	store     generic.RowStore
	guarded   generic.GuardedStore // nil when the store cannot guard writes
	tracker   *Tracker
	directory Directory
	policy    *ProgramPolicy
	datasets  Datasets
	locks     *workerLocks
	log       zerolog.Logger
}

type Option func(*Ledger)

func WithPolicy(p *ProgramPolicy) Option   { return func(l *Ledger) { l.policy = p } }
func WithDatasets(d Datasets) Option       { return func(l *Ledger) { l.datasets = d } }
func WithDirectory(d Directory) Option     { return func(l *Ledger) { l.directory = d } }
func WithLogger(log zerolog.Logger) Option { return func(l *Ledger) { l.log = log } }

// NewLedger creates a ledger over store. Without WithDirectory, workers are
// read from the workers dataset of the same store.
func NewLedger(store generic.RowStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		policy:   DefaultPolicy(),
		datasets: DefaultDatasets(),
		locks:    newWorkerLocks(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.directory == nil {
		l.directory = NewRowDirectory(store, l.datasets.Workers, l.datasets.WorkersRange)
	}
	if gs, ok := store.(generic.GuardedStore); ok {
		l.guarded = gs
	}
	l.tracker = NewTracker(store, l.datasets.Timesheet, l.datasets.TimesheetRange, l.log)
	return l
}

// Policy returns the policy tables in use.
func (l *Ledger) Policy() *ProgramPolicy { return l.policy }

// =============================================================================
// CLOCK IN / CLOCK OUT
// =============================================================================

// ClockIn opens a session for workerID dated now's calendar date.
//
// Errors: ErrInvalidProgram, ErrUnknownWorker, *AlreadyClockedInError,
// *MultipleOpenSessionsError, ErrStoreUnavailable.
func (l *Ledger) ClockIn(ctx context.Context, workerID string, program Program, now time.Time) (*Entry, error) {
	if !program.Valid() {
		return nil, &InvalidProgramError{Program: string(program)}
	}
	workerID = strings.TrimSpace(workerID)
	if _, err := l.Worker(ctx, workerID); err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	unlock := l.locks.lock(workerID)
	defer unlock()

	today := generic.DateOf(now)
	var entry Entry
	err := l.appendWith(ctx, func(current [][]string) ([][]string, error) {
		open, err := findOpen(l.tracker.decode(current), workerID, today)
		if err != nil {
			return nil, err
		}
		if open != nil {
			return nil, &AlreadyClockedInError{WorkerID: workerID, Open: *open}
		}

		var rows [][]string
		if len(current) == 0 {
			rows = append(rows, Header)
		}
		entry = Entry{
			Row:      len(current) + len(rows) + 1,
			Sequence: nextSequence(current),
			WorkerID: workerID,
			Date:     today,
			ClockIn:  generic.TimeOfDay(now),
			Program:  program,
		}
		return append(rows, EncodeEntry(entry)), nil
	})
	if err != nil {
		l.logIntegrity(err, workerID)
		return nil, err
	}

	l.log.Info().
		Str("worker_id", workerID).
		Str("program", string(program)).
		Str("date", today.String()).
		Str("clock_in", generic.FormatClock(entry.ClockIn)).
		Int("sequence", entry.Sequence).
		Msg("clocked in")
	return &entry, nil
}

// ClockOut closes the worker's open session for now's date. When expected is
// not ProgramUnspecified it must match the open session's program.
//
// Errors: ErrInvalidProgram, ErrNoOpenSession, *ProgramMismatchError,
// *MultipleOpenSessionsError, ErrStoreUnavailable.
func (l *Ledger) ClockOut(ctx context.Context, workerID string, expected Program, now time.Time) (*Entry, error) {
	if expected != ProgramUnspecified && !expected.Valid() {
		return nil, &InvalidProgramError{Program: string(expected)}
	}
	workerID = strings.TrimSpace(workerID)

	ctx = context.WithoutCancel(ctx)
	unlock := l.locks.lock(workerID)
	defer unlock()

	today := generic.DateOf(now)
	sheet := generic.SheetOf(l.datasets.TimesheetRange)
	var closed Entry
	err := l.updateWith(ctx, func(current [][]string) (string, []string, error) {
		open, err := findOpen(l.tracker.decode(current), workerID, today)
		if err != nil {
			return "", nil, err
		}
		if open == nil {
			return "", nil, fmt.Errorf("%w: worker %s on %s", ErrNoOpenSession, workerID, today)
		}
		if expected != ProgramUnspecified && open.Program != expected {
			return "", nil, &ProgramMismatchError{WorkerID: workerID, Expected: expected, Actual: open.Program}
		}
		if closed, err = l.close(*open, now); err != nil {
			return "", nil, err
		}
		return closeAddress(sheet, closed.Row), encodeClose(closed), nil
	})
	if err != nil {
		l.logIntegrity(err, workerID)
		return nil, err
	}

	l.log.Info().
		Str("worker_id", workerID).
		Str("program", string(closed.Program)).
		Str("date", closed.Date.String()).
		Str("actual_hours", generic.FormatHours(closed.ActualHours)).
		Str("adjusted_hours", generic.FormatHours(closed.AdjustedHours)).
		Msg("clocked out")
	return &closed, nil
}

// close computes the clock-out fields of e at now.
func (l *Ledger) close(e Entry, now time.Time) (Entry, error) {
	out := generic.TimeOfDay(now)
	elapsed := out - e.ClockIn
	if elapsed < 0 {
		l.log.Warn().
			Str("worker_id", e.WorkerID).
			Str("date", e.Date.String()).
			Str("clock_in", generic.FormatClock(e.ClockIn)).
			Str("clock_out", generic.FormatClock(out)).
			Msg("clock-out earlier than clock-in on the stored date")
		return e, fmt.Errorf("%w: clock-out %s is before clock-in %s on %s",
			ErrInvalidInput, generic.FormatClock(out), generic.FormatClock(e.ClockIn), e.Date)
	}

	actual := generic.Elapsed(elapsed)
	adjusted, err := l.policy.Adjust(actual, e.Program)
	if err != nil {
		return e, err
	}
	e.ClockOut = &out
	e.ActualHours = generic.RoundHours(actual)
	e.AdjustedHours = generic.RoundHours(adjusted)
	return e, nil
}

func (l *Ledger) logIntegrity(err error, workerID string) {
	if errors.Is(err, ErrMultipleOpenSessions) {
		l.log.Error().Err(err).Str("worker_id", workerID).Msg("open session invariant violated")
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// Worker resolves id through the directory.
func (l *Ledger) Worker(ctx context.Context, id string) (*Worker, error) {
	w, err := l.directory.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorker, id)
	}
	return w, nil
}

// ActiveSession returns the worker's open session for now's date, or nil.
func (l *Ledger) ActiveSession(ctx context.Context, workerID string, now time.Time) (*Entry, error) {
	return l.tracker.FindOpenSession(ctx, strings.TrimSpace(workerID), generic.DateOf(now))
}

// Entries returns the worker's entries dated inside w, ordered by date and
// clock-in. An empty workerID returns every worker's entries.
func (l *Ledger) Entries(ctx context.Context, workerID string, w generic.Window) ([]Entry, error) {
	all, err := l.tracker.Entries(ctx)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, e := range all {
		if (workerID == "" || e.WorkerID == workerID) && w.Contains(e.Date) {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.ClockIn != b.ClockIn {
			return a.ClockIn < b.ClockIn
		}
		return a.Sequence < b.Sequence
	})
	return entries, nil
}

// Report builds the hand-off for the presentation layer: display rows,
// program totals and the window label.
func (l *Ledger) Report(ctx context.Context, workerID string, w generic.Window) (*Report, error) {
	workerID = strings.TrimSpace(workerID)
	if workerID != "" {
		if _, err := l.Worker(ctx, workerID); err != nil {
			return nil, err
		}
	}
	entries, err := l.Entries(ctx, workerID, w)
	if err != nil {
		return nil, err
	}
	return BuildReport(workerID, w, entries, l.policy.Categories), nil
}

// =============================================================================
// STORE ACCESS
// =============================================================================

func (l *Ledger) appendWith(ctx context.Context, fn generic.AppendFunc) error {
	ds := l.datasets
	if l.guarded != nil {
		return l.guarded.AppendRowsWith(ctx, ds.Timesheet, ds.TimesheetRange, fn)
	}
	current, err := generic.ReadFresh(ctx, l.store, ds.Timesheet, ds.TimesheetRange)
	if err != nil {
		return err
	}
	rows, err := fn(current)
	if err != nil {
		return err
	}
	return l.store.AppendRows(ctx, ds.Timesheet, ds.TimesheetRange, rows)
}

func (l *Ledger) updateWith(ctx context.Context, fn generic.UpdateFunc) error {
	ds := l.datasets
	if l.guarded != nil {
		return l.guarded.UpdateRangeWith(ctx, ds.Timesheet, fn)
	}
	current, err := generic.ReadFresh(ctx, l.store, ds.Timesheet, ds.TimesheetRange)
	if err != nil {
		return err
	}
	address, values, err := fn(current)
	if err != nil {
		return err
	}
	return generic.UpdateRange(ctx, l.store, ds.Timesheet, address, values)
}
