/*
Package sqlite provides a SQLite-backed row store.

PURPOSE:
  Local persistence for the timesheet engine when no hosted spreadsheet is
  configured: single-site installs, demos and tests. It keeps the same
  dataset/row/cell model as the spreadsheet so the ledger cannot tell the
  difference.

INTERFACES IMPLEMENTED:
  generic.RowStore:     read, append, single-cell update
  generic.RangeUpdater: multi-cell update of one row
  generic.GuardedStore: check-then-write inside one SQL transaction

KEY TABLES:
  sheet_rows: one record per (dataset, row_num); cells as a JSON array.
              row_num is 1-based and matches the A1 row of the cell.

CONCURRENCY:
  Uses sync.Mutex for in-process writers and a single connection so that
  ":memory:" databases are shared by every call. Write transactions start
  with BEGIN IMMEDIATE (_txlock=immediate), so a second process writing
  the same file waits on SQLite's write lock before it reads the rows its
  check depends on. A lock still held when the busy timeout runs out comes
  back as generic.ErrConcurrentModification.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/timesheet.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := timesheet.NewLedger(store)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/warp/timesheet-engine/generic"
)

// Store implements generic.GuardedStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DefaultBusyTimeout is how long a writer waits for another connection's
// write lock.
const DefaultBusyTimeout = 5 * time.Second

type options struct {
	busyTimeout time.Duration
}

// Option configures a Store.
type Option func(*options)

// WithBusyTimeout sets how long a writer waits for the write lock.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	o := options{busyTimeout: DefaultBusyTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=%d&_txlock=immediate",
		dbPath, o.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sheet_rows (
		dataset TEXT NOT NULL,
		row_num INTEGER NOT NULL,
		cells_json TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (dataset, row_num)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ROW STORE (generic.RowStore interface)
// =============================================================================

// ReadRows returns every row of the dataset in row order. The range is
// ignored; a dataset is one table region.
func (s *Store) ReadRows(ctx context.Context, dataset, _ string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := readRows(ctx, s.db, dataset)
	if err != nil {
		return nil, storeErr("read", dataset, err)
	}
	return rows, nil
}

// AppendRows adds rows after the last stored row.
func (s *Store) AppendRows(ctx context.Context, dataset, _ string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, "append", dataset, func(tx *sql.Tx) error {
		return appendRows(ctx, tx, dataset, rows)
	})
}

// UpdateCell overwrites one cell.
func (s *Store) UpdateCell(ctx context.Context, dataset, address, value string) error {
	return s.UpdateRange(ctx, dataset, address, []string{value})
}

// UpdateRange overwrites consecutive cells of one row.
func (s *Store) UpdateRange(ctx context.Context, dataset, address string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, "update", dataset, func(tx *sql.Tx) error {
		return updateRow(ctx, tx, dataset, address, values)
	})
}

// =============================================================================
// GUARDED WRITES (generic.GuardedStore interface)
// =============================================================================

// AppendRowsWith reads the dataset, lets fn decide, and appends its rows, all
// in one transaction. An error from fn rolls back and is returned unchanged.
func (s *Store) AppendRowsWith(ctx context.Context, dataset, _ string, fn generic.AppendFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, "append", dataset, func(tx *sql.Tx) error {
		current, err := readRows(ctx, tx, dataset)
		if err != nil {
			return err
		}
		rows, err := fn(current)
		if err != nil {
			return callerError{err}
		}
		return appendRows(ctx, tx, dataset, rows)
	})
}

// UpdateRangeWith reads the dataset, lets fn pick the cells, and writes them,
// all in one transaction.
func (s *Store) UpdateRangeWith(ctx context.Context, dataset string, fn generic.UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, "update", dataset, func(tx *sql.Tx) error {
		current, err := readRows(ctx, tx, dataset)
		if err != nil {
			return err
		}
		address, values, err := fn(current)
		if err != nil {
			return callerError{err}
		}
		return updateRow(ctx, tx, dataset, address, values)
	})
}

// callerError marks errors produced by the caller's decision function so
// inTx passes them through instead of wrapping them as store failures.
type callerError struct{ err error }

func (e callerError) Error() string { return e.err.Error() }
func (e callerError) Unwrap() error { return e.err }

// inTx runs fn in a transaction. Driver failures come back through classify;
// address and caller errors are returned as they are.
func (s *Store) inTx(ctx context.Context, op, dataset string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(op, dataset, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		var ce callerError
		if errors.As(err, &ce) {
			return ce.err
		}
		if errors.Is(err, generic.ErrInvalidAddress) {
			return err
		}
		return classify(op, dataset, err)
	}

	if err := tx.Commit(); err != nil {
		return classify(op, dataset, fmt.Errorf("failed to commit: %w", err))
	}
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

func readRows(ctx context.Context, q queryer, dataset string) ([][]string, error) {
	rs, err := q.QueryContext(ctx,
		`SELECT row_num, cells_json FROM sheet_rows WHERE dataset = ? ORDER BY row_num`, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rs.Close()

	var rows [][]string
	for rs.Next() {
		var (
			num   int
			cells string
		)
		if err := rs.Scan(&num, &cells); err != nil {
			return nil, err
		}
		var row []string
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", num, err)
		}
		for len(rows) < num-1 {
			rows = append(rows, []string{})
		}
		rows = append(rows, row)
	}
	return rows, rs.Err()
}

func appendRows(ctx context.Context, q queryer, dataset string, rows [][]string) error {
	var last int
	if err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row_num), 0) FROM sheet_rows WHERE dataset = ?`, dataset).Scan(&last); err != nil {
		return fmt.Errorf("failed to find last row: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i, row := range rows {
		cells, err := json.Marshal(normalize(row))
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO sheet_rows (dataset, row_num, cells_json, updated_at) VALUES (?, ?, ?, ?)`,
			dataset, last+i+1, string(cells), now,
		); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	return nil
}

func updateRow(ctx context.Context, q queryer, dataset, address string, values []string) error {
	rowNum, col, err := generic.RowSpan(address, len(values))
	if err != nil {
		return err
	}

	var cells string
	err = q.QueryRowContext(ctx,
		`SELECT cells_json FROM sheet_rows WHERE dataset = ? AND row_num = ?`, dataset, rowNum).Scan(&cells)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: row %d not in %s", generic.ErrInvalidAddress, rowNum, dataset)
	}
	if err != nil {
		return fmt.Errorf("failed to load row: %w", err)
	}

	var row []string
	if err := json.Unmarshal([]byte(cells), &row); err != nil {
		return fmt.Errorf("row %d: %w", rowNum, err)
	}
	updated, err := json.Marshal(generic.SetCells(row, col, values))
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx,
		`UPDATE sheet_rows SET cells_json = ?, updated_at = ? WHERE dataset = ? AND row_num = ?`,
		string(updated), time.Now().UTC().Format(time.RFC3339), dataset, rowNum)
	if err != nil {
		return fmt.Errorf("failed to update row: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

func storeErr(op, dataset string, err error) error {
	return &generic.StoreError{Op: op, Dataset: dataset, Err: err}
}

// classify reports a write lock held by another connection as
// generic.ErrConcurrentModification and anything else as a store failure.
func classify(op, dataset string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %s %s: %w", generic.ErrConcurrentModification, op, dataset, err)
	}
	return storeErr(op, dataset, err)
}

// normalize keeps nil rows from being stored as JSON null.
func normalize(row []string) []string {
	if row == nil {
		return []string{}
	}
	return row
}
