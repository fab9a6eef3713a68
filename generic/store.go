/*
store.go - Row store contract

PURPOSE:
  The engine persists through a spreadsheet-shaped store: named datasets of
  string rows, the first row being a header. This mirrors the values API of
  a hosted spreadsheet and is simple enough to back with SQLite or memory.

KEY INTERFACES:
  RowStore:     read, append, single-cell update (the minimum contract)
  RangeUpdater: multi-cell update of one row in a single call
  FreshReader:  uncached read for check-then-write decisions
  GuardedStore: check-then-write under one lock / transaction

RANGES AND ADDRESSES:
  Ranges and addresses use A1 notation ("Sheet1!A:H", "Sheet1!E5:G5").
  Local stores (memory, sqlite) key on the dataset and only use the row and
  column part of an address; the sheet prefix is ignored.

CONSISTENCY:
  Plain RowStore gives no transactional guarantee: a caller that reads,
  decides, then writes can race another caller doing the same. Stores that
  can close that window implement GuardedStore, where the decision is made
  from rows read inside the same critical section as the write. Unguarded
  decisions read through ReadFresh so a read cache never feeds them.

IMPLEMENTATIONS:
  - generic/store/memory.go: in-memory, guarded
  - store/sqlite: SQLite, guarded
  - store/sheets: Google Sheets values API, not guarded
  - store/cache: read cache decorator, passes guards through

SEE ALSO:
  - a1.go: address parsing
  - timesheet/ledger.go: the main consumer
*/
package generic

import (
	"context"
	"fmt"
)

// =============================================================================
// ROW STORE - Minimum contract
// =============================================================================

// RowStore is the external ledger store.
type RowStore interface {
	// ReadRows returns all rows of the range, header first.
	ReadRows(ctx context.Context, dataset, rng string) ([][]string, error)

	// AppendRows adds rows after the last row of the range.
	AppendRows(ctx context.Context, dataset, rng string, rows [][]string) error

	// UpdateCell overwrites one addressed cell.
	UpdateCell(ctx context.Context, dataset, address, value string) error
}

// RangeUpdater writes consecutive cells of one row in a single call.
type RangeUpdater interface {
	UpdateRange(ctx context.Context, dataset, address string, values []string) error
}

// FreshReader is implemented by stores that may answer ReadRows from a
// cache. ReadRowsFresh always reads the backing store.
type FreshReader interface {
	ReadRowsFresh(ctx context.Context, dataset, rng string) ([][]string, error)
}

// =============================================================================
// GUARDED STORE - Check and write under one lock
// =============================================================================

// AppendFunc receives the rows of the dataset as they are at write time and
// returns the rows to append, or an error to abort without writing.
type AppendFunc func(current [][]string) ([][]string, error)

// UpdateFunc receives the rows of the dataset as they are at write time and
// returns the address and values to write, or an error to abort.
type UpdateFunc func(current [][]string) (address string, values []string, err error)

// GuardedStore runs the decision and the write atomically with respect to
// other writers of the same dataset.
type GuardedStore interface {
	RowStore
	AppendRowsWith(ctx context.Context, dataset, rng string, fn AppendFunc) error
	UpdateRangeWith(ctx context.Context, dataset string, fn UpdateFunc) error
}

// =============================================================================
// HELPERS
// =============================================================================

// UpdateRange writes values starting at address, in one call when the store
// supports it and cell by cell otherwise.
func UpdateRange(ctx context.Context, s RowStore, dataset, address string, values []string) error {
	if ru, ok := s.(RangeUpdater); ok {
		return ru.UpdateRange(ctx, dataset, address, values)
	}

	from, _, err := ParseA1(address)
	if err != nil {
		return err
	}
	for i, v := range values {
		cell := FormatA1(from.Sheet, from.Row, from.Col+i)
		if err := s.UpdateCell(ctx, dataset, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadFresh reads rows a write decision can rely on, bypassing any
// cache in front of the store.
func ReadFresh(ctx context.Context, s RowStore, dataset, rng string) ([][]string, error) {
	if fr, ok := s.(FreshReader); ok {
		return fr.ReadRowsFresh(ctx, dataset, rng)
	}
	return s.ReadRows(ctx, dataset, rng)
}

// EnsureHeader writes header as the first row of an empty dataset.
func EnsureHeader(ctx context.Context, s RowStore, dataset, rng string, header []string) error {
	rows, err := s.ReadRows(ctx, dataset, rng)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}
	return s.AppendRows(ctx, dataset, rng, [][]string{header})
}

// Cell returns row[i] or "" when the row is short. Spreadsheets drop trailing
// empty cells.
func Cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// SetCells writes values into row starting at column col, padding as needed.
func SetCells(row []string, col int, values []string) []string {
	for len(row) < col+len(values) {
		row = append(row, "")
	}
	copy(row[col:], values)
	return row
}

// CopyRows deep-copies rows.
func CopyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// RowSpan validates that an A1 range covers exactly one row and len(values)
// columns, returning the row and first column.
func RowSpan(address string, values int) (row, col int, err error) {
	from, to, err := ParseA1(address)
	if err != nil {
		return 0, 0, err
	}
	if from.Row != to.Row {
		return 0, 0, fmt.Errorf("%w: %q spans more than one row", ErrInvalidAddress, address)
	}
	if from != to && to.Col-from.Col+1 != values {
		return 0, 0, fmt.Errorf("%w: %q does not hold %d values", ErrInvalidAddress, address, values)
	}
	return from.Row, from.Col, nil
}
