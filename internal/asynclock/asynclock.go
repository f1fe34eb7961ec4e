// Package asynclock implements the per-key mutual-exclusion primitive
// consumed by lockmap, via internal/keyedlock. It is a thin, context-aware
// wrapper around a binary golang.org/x/sync/semaphore.Weighted, which
// already provides exactly the Acquire(ctx, n)/TryAcquire(n)/Release(n)
// shape a context-cancellable mutex needs.
package asynclock

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Mutex is a context-cancellable mutual-exclusion lock. The zero value is
// not usable; construct with [New].
type Mutex struct {
	sem *semaphore.Weighted
}

// New returns an unlocked Mutex.
func New() *Mutex {
	return &Mutex{sem: semaphore.NewWeighted(1)}
}

// Lock acquires the mutex, suspending until it is available or ctx is done.
func (m *Mutex) Lock(ctx context.Context) error {
	return m.sem.Acquire(ctx, 1)
}

// TryLock acquires the mutex without suspending, returning false if it is
// already held.
func (m *Mutex) TryLock() bool {
	return m.sem.TryAcquire(1)
}

// Unlock releases the mutex. Unlocking an already-unlocked Mutex panics, as
// for [sync.Mutex].
func (m *Mutex) Unlock() {
	m.sem.Release(1)
}
