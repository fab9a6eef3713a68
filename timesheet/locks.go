package timesheet

import "sync"

// workerLocks serializes clock operations per worker inside one process.
// Entries are reference counted and dropped when the last holder unlocks.
type workerLocks struct {
	mu    sync.Mutex
	locks map[string]*workerLock
}

type workerLock struct {
	mu   sync.Mutex
	refs int
}

func newWorkerLocks() *workerLocks {
	return &workerLocks{locks: make(map[string]*workerLock)}
}

// lock blocks until workerID is free and returns the unlock func.
func (w *workerLocks) lock(workerID string) func() {
	w.mu.Lock()
	l, ok := w.locks[workerID]
	if !ok {
		l = &workerLock{}
		w.locks[workerID] = l
	}
	l.refs++
	w.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		w.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(w.locks, workerID)
		}
		w.mu.Unlock()
	}
}
