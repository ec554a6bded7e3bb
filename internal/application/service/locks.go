package service

import "sync"

// runLocks serializes mutations per run id. Recompute reads the full
// current line set; two writers interleaving on one run would race.
// Different runs proceed in parallel.
type runLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRunLocks() *runLocks {
	return &runLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *runLocks) forRun(runID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[runID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[runID] = lock
	}
	return lock
}
