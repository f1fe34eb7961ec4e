package lockmap

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/joeycumines/go-asyncds/internal/asynclock"
	"github.com/joeycumines/go-asyncds/internal/keyedlock"
)

// errWouldBlock is an internal sentinel used to signal a failed TryLock
// attempt back through keyedlock.Registry.Acquire; it is never returned to
// a caller of this package.
var errWouldBlock = errors.New("lockmap: would block")

// LockMap is a per-key mutual-exclusion registry. The zero value is not
// usable; construct with [New].
type LockMap[K comparable] struct {
	registry *keyedlock.Registry[K, *asynclock.Mutex]
}

// New returns an empty LockMap.
func New[K comparable]() *LockMap[K] {
	return &LockMap[K]{
		registry: keyedlock.NewRegistry[K, *asynclock.Mutex](asynclock.New),
	}
}

// Count returns the number of keys currently present - i.e. with at least
// one outstanding Lock/TryLock holder or waiter.
func (m *LockMap[K]) Count() int {
	return m.registry.Count()
}

// Lock acquires the lock for key, creating its entry if this is the first
// reference, suspending until it is available or ctx is done. On success,
// the returned Handle's Release method must eventually be called to
// release the lock and this reference; it is idempotent.
func (m *LockMap[K]) Lock(ctx context.Context, key K) (*Handle, error) {
	release, err := m.registry.Acquire(ctx, key,
		func(p *asynclock.Mutex, ctx context.Context) error { return p.Lock(ctx) },
		func(p *asynclock.Mutex) { p.Unlock() },
	)
	if err != nil {
		return nil, err
	}
	return &Handle{release: release}, nil
}

// TryLock attempts to acquire the lock for key without suspending. On
// success it behaves as Lock; on failure it returns nil, false and the
// registry's refcount for key (if any) is left unaffected.
func (m *LockMap[K]) TryLock(key K) (*Handle, bool) {
	release, err := m.registry.Acquire(context.Background(), key,
		func(p *asynclock.Mutex, _ context.Context) error {
			if p.TryLock() {
				return nil
			}
			return errWouldBlock
		},
		func(p *asynclock.Mutex) { p.Unlock() },
	)
	if err != nil {
		return nil, false
	}
	return &Handle{release: release}, true
}

// Handle is a scoped release handle returned by Lock/TryLock. Release is
// idempotent: only the first call has any effect.
type Handle struct {
	release func()
	done    atomic.Bool
}

// Release releases the lock and this reference to its registry entry.
// Safe to call multiple times; only the first call has any effect.
func (h *Handle) Release() {
	if h.done.CompareAndSwap(false, true) {
		h.release()
	}
}
