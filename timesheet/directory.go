package timesheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/warp/timesheet-engine/generic"
)

// Directory resolves worker ids. Lookup returns nil, nil for an unknown id.
type Directory interface {
	Lookup(ctx context.Context, id string) (*Worker, error)
}

// RowDirectory reads workers from a dataset of (id, name) rows, header first.
type RowDirectory struct {
	store   generic.RowStore
	dataset string
	rng     string
}

func NewRowDirectory(store generic.RowStore, dataset, rng string) *RowDirectory {
	return &RowDirectory{store: store, dataset: dataset, rng: rng}
}

func (d *RowDirectory) Lookup(ctx context.Context, id string) (*Worker, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	workers, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range workers {
		if w.ID == id {
			return &w, nil
		}
	}
	return nil, nil
}

// List returns every worker in dataset order.
func (d *RowDirectory) List(ctx context.Context) ([]Worker, error) {
	rows, err := d.store.ReadRows(ctx, d.dataset, d.rng)
	if err != nil {
		return nil, err
	}
	var workers []Worker
	for i := 1; i < len(rows); i++ {
		id := strings.TrimSpace(generic.Cell(rows[i], 0))
		if id == "" {
			continue
		}
		workers = append(workers, Worker{ID: id, Name: strings.TrimSpace(generic.Cell(rows[i], 1))})
	}
	return workers, nil
}

// Add registers a worker. Only used to seed local stores; in production the
// directory is maintained outside the engine.
func (d *RowDirectory) Add(ctx context.Context, w Worker) error {
	w.ID = strings.TrimSpace(w.ID)
	if w.ID == "" {
		return fmt.Errorf("%w: empty worker id", ErrInvalidInput)
	}
	if err := generic.EnsureHeader(ctx, d.store, d.dataset, d.rng, WorkerHeader); err != nil {
		return err
	}
	existing, err := d.Lookup(ctx, w.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: worker %s already exists", ErrInvalidInput, w.ID)
	}
	return d.store.AppendRows(ctx, d.dataset, d.rng, [][]string{{w.ID, w.Name}})
}
