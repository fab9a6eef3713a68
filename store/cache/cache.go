/*
Package cache provides a read-through cache in front of a row store.

PURPOSE:
  The hosted spreadsheet is slow and rate limited, and a report request or
  a status check reads the whole dataset. Reads are served from a short
  lived cache; every write through this wrapper drops the dataset's
  entries so the next read sees it.

CONSISTENCY:
  Writes made outside this process (a coordinator editing the sheet, a
  second instance) are visible to ReadRows after at most the TTL. Write
  decisions never use cached rows: guarded writes read inside the inner
  store's lock, unguarded ones through ReadRowsFresh.

  Each dataset has a generation, bumped by every write. A read that began
  before a write finished does not store its rows, so it cannot put
  pre-write rows back after the invalidation.

BACKENDS:
  - Memory: per process, for a single instance
  - Redis:  shared between instances (go-redis)

  A failing backend never fails the request: the error is logged and the
  inner store is used directly.
*/
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/timesheet-engine/generic"
)

// DefaultTTL bounds how stale a read may be.
const DefaultTTL = 5 * time.Second

// Backend stores cached datasets.
type Backend interface {
	// Get returns the cached rows and whether they were present.
	Get(ctx context.Context, key string) ([][]string, bool, error)
	Set(ctx context.Context, key string, rows [][]string, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Store caches ReadRows of the wrapped store.
type Store struct {
	inner   generic.RowStore
	backend Backend
	ttl     time.Duration
	log     zerolog.Logger

	mu          sync.Mutex
	generations map[string]uint64
}

// guardedStore is returned when the inner store can guard writes, so the
// ledger keeps its check-then-write guarantee through the cache.
type guardedStore struct {
	*Store
	guarded generic.GuardedStore
}

// New wraps inner. The result implements generic.GuardedStore exactly when
// inner does.
func New(inner generic.RowStore, backend Backend, ttl time.Duration, log zerolog.Logger) generic.RowStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{inner: inner, backend: backend, ttl: ttl, log: log, generations: make(map[string]uint64)}
	if gs, ok := inner.(generic.GuardedStore); ok {
		return &guardedStore{Store: s, guarded: gs}
	}
	return s
}

// =============================================================================
// READS
// =============================================================================

func (s *Store) ReadRows(ctx context.Context, dataset, rng string) ([][]string, error) {
	key := rowsKey(dataset, rng)

	rows, ok, err := s.backend.Get(ctx, key)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("dataset", dataset).Msg("cache read failed, reading store")
	case ok:
		cacheHits.WithLabelValues(dataset).Inc()
		return rows, nil
	}
	cacheMisses.WithLabelValues(dataset).Inc()
	return s.readInner(ctx, dataset, rng)
}

// ReadRowsFresh reads the inner store and refreshes the cache with the result.
func (s *Store) ReadRowsFresh(ctx context.Context, dataset, rng string) ([][]string, error) {
	return s.readInner(ctx, dataset, rng)
}

func (s *Store) readInner(ctx context.Context, dataset, rng string) ([][]string, error) {
	gen := s.generation(dataset)
	rows, err := s.inner.ReadRows(ctx, dataset, rng)
	if err != nil {
		return nil, err
	}
	s.put(ctx, dataset, rowsKey(dataset, rng), gen, rows)
	return rows, nil
}

// put caches rows read at generation gen, unless a write has happened since.
// The generation check and the Set run under mu so an invalidation cannot
// slip between them.
func (s *Store) put(ctx context.Context, dataset, key string, gen uint64, rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generations[dataset] != gen {
		s.log.Debug().Str("dataset", dataset).Msg("dataset written during read, not caching")
		return
	}
	if err := s.backend.Set(ctx, key, rows, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("dataset", dataset).Msg("cache write failed")
	}
}

func (s *Store) generation(dataset string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[dataset]
}

// =============================================================================
// WRITES - Always invalidate, even on failure
// =============================================================================

func (s *Store) AppendRows(ctx context.Context, dataset, rng string, rows [][]string) error {
	defer s.invalidate(ctx, dataset)
	return s.inner.AppendRows(ctx, dataset, rng, rows)
}

func (s *Store) UpdateCell(ctx context.Context, dataset, address, value string) error {
	defer s.invalidate(ctx, dataset)
	return s.inner.UpdateCell(ctx, dataset, address, value)
}

// UpdateRange forwards to the inner store's range update when it has one.
func (s *Store) UpdateRange(ctx context.Context, dataset, address string, values []string) error {
	defer s.invalidate(ctx, dataset)
	return generic.UpdateRange(ctx, s.inner, dataset, address, values)
}

func (g *guardedStore) AppendRowsWith(ctx context.Context, dataset, rng string, fn generic.AppendFunc) error {
	defer g.invalidate(ctx, dataset)
	return g.guarded.AppendRowsWith(ctx, dataset, rng, fn)
}

func (g *guardedStore) UpdateRangeWith(ctx context.Context, dataset string, fn generic.UpdateFunc) error {
	defer g.invalidate(ctx, dataset)
	return g.guarded.UpdateRangeWith(ctx, dataset, fn)
}

// invalidate bumps the dataset's generation and drops its cached ranges.
func (s *Store) invalidate(ctx context.Context, dataset string) {
	s.mu.Lock()
	s.generations[dataset]++
	s.mu.Unlock()

	if err := s.backend.DeletePrefix(ctx, datasetPrefix(dataset)); err != nil {
		s.log.Warn().Err(err).Str("dataset", dataset).Msg("cache invalidation failed")
	}
}

func datasetPrefix(dataset string) string { return "rows:" + dataset + ":" }

func rowsKey(dataset, rng string) string { return datasetPrefix(dataset) + rng }
