package timesheet

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// ACTIVE SESSION TRACKER
// =============================================================================

// Tracker finds a worker's open session. It never writes; cache invalidation
// after writes is the ledger's job.
type Tracker struct {
	store   generic.RowStore
	dataset string
	rng     string
	log     zerolog.Logger
}

func NewTracker(store generic.RowStore, dataset, rng string, log zerolog.Logger) *Tracker {
	return &Tracker{store: store, dataset: dataset, rng: rng, log: log}
}

// FindOpenSession returns the worker's open entry dated asOf, or nil if there
// is none. More than one open entry is an integrity violation and returns a
// *MultipleOpenSessionsError rather than an arbitrary pick.
func (t *Tracker) FindOpenSession(ctx context.Context, workerID string, asOf generic.TimePoint) (*Entry, error) {
	entries, err := t.Entries(ctx)
	if err != nil {
		return nil, err
	}
	open, err := findOpen(entries, workerID, asOf)
	if err != nil {
		t.log.Error().Err(err).Str("worker_id", workerID).Msg("open session invariant violated")
	}
	return open, err
}

// Entries reads and decodes the whole timesheet dataset.
func (t *Tracker) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := t.store.ReadRows(ctx, t.dataset, t.rng)
	if err != nil {
		return nil, err
	}
	return t.decode(rows), nil
}

func (t *Tracker) decode(rows [][]string) []Entry {
	entries, skipped := DecodeRows(rows)
	for _, s := range skipped {
		t.log.Warn().Int("row", s.Row).Err(s.Err).Str("dataset", t.dataset).Msg("skipping malformed timesheet row")
	}
	return entries
}

func findOpen(entries []Entry, workerID string, asOf generic.TimePoint) (*Entry, error) {
	var open []Entry
	for _, e := range entries {
		if e.WorkerID == workerID && e.Date.Equal(asOf) && e.IsOpen() {
			open = append(open, e)
		}
	}
	switch len(open) {
	case 0:
		return nil, nil
	case 1:
		return &open[0], nil
	default:
		rows := make([]int, len(open))
		for i, e := range open {
			rows[i] = e.Row
		}
		return nil, &MultipleOpenSessionsError{WorkerID: workerID, Date: asOf, Rows: rows}
	}
}
