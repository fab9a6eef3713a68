// Package store provides the in-memory RowStore.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps datasets as slices of rows. It implements generic.GuardedStore
// by running the decision and the write under the same mutex.
type Memory struct {
	mu       sync.RWMutex
	datasets map[string][][]string
}

func NewMemory() *Memory {
	return &Memory{datasets: make(map[string][][]string)}
}

// Seed replaces a dataset's rows.
func (m *Memory) Seed(dataset string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[dataset] = generic.CopyRows(rows)
}

func (m *Memory) ReadRows(_ context.Context, dataset, _ string) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return generic.CopyRows(m.datasets[dataset]), nil
}

func (m *Memory) AppendRows(_ context.Context, dataset, _ string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLocked(dataset, rows)
	return nil
}

func (m *Memory) UpdateCell(_ context.Context, dataset, address, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(dataset, address, []string{value})
}

// UpdateRange writes consecutive cells of one row.
func (m *Memory) UpdateRange(_ context.Context, dataset, address string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(dataset, address, values)
}

// =============================================================================
// GUARDED WRITES
// =============================================================================

func (m *Memory) AppendRowsWith(_ context.Context, dataset, _ string, fn generic.AppendFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, err := fn(generic.CopyRows(m.datasets[dataset]))
	if err != nil {
		return err
	}
	m.appendLocked(dataset, rows)
	return nil
}

func (m *Memory) UpdateRangeWith(_ context.Context, dataset string, fn generic.UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	address, values, err := fn(generic.CopyRows(m.datasets[dataset]))
	if err != nil {
		return err
	}
	return m.updateLocked(dataset, address, values)
}

func (m *Memory) appendLocked(dataset string, rows [][]string) {
	m.datasets[dataset] = append(m.datasets[dataset], generic.CopyRows(rows)...)
}

func (m *Memory) updateLocked(dataset, address string, values []string) error {
	row, col, err := generic.RowSpan(address, len(values))
	if err != nil {
		return err
	}
	rows := m.datasets[dataset]
	if row > len(rows) {
		return fmt.Errorf("%w: row %d beyond %d rows of %s", generic.ErrInvalidAddress, row, len(rows), dataset)
	}
	rows[row-1] = generic.SetCells(rows[row-1], col, values)
	return nil
}
