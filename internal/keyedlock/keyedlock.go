// Package keyedlock implements the keyed lock registry shared by lockmap
// and rwlockmap: an on-demand map of per-key primitives, reference counted
// so that an entry is created on first acquisition and removed precisely
// when the last holder/waiter releases it.
package keyedlock

import (
	"context"
	"sync"
)

type (
	// Registry is a ref-counted map of per-key primitives of type P, keyed
	// by K. The zero value is not usable; construct with [NewRegistry].
	Registry[K comparable, P any] struct {
		mu           sync.Mutex
		entries      map[K]*entry[P]
		newPrimitive func() P
	}

	entry[P any] struct {
		primitive P
		refcount  int
	}
)

// NewRegistry returns an empty Registry whose entries are constructed, on
// first reference, via newPrimitive.
func NewRegistry[K comparable, P any](newPrimitive func() P) *Registry[K, P] {
	return &Registry[K, P]{
		entries:      make(map[K]*entry[P]),
		newPrimitive: newPrimitive,
	}
}

// Count returns the number of keys currently present in the registry
// (i.e. with a positive refcount).
func (r *Registry[K, P]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// getRef returns the entry for key, creating it with refcount 1 if absent,
// otherwise incrementing its refcount.
func (r *Registry[K, P]) getRef(key K) *entry[P] {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		e = &entry[P]{primitive: r.newPrimitive()}
		r.entries[key] = e
	}
	e.refcount++
	return e
}

// putRef decrements the entry's refcount, removing it from the map if it
// reaches zero.
func (r *Registry[K, P]) putRef(key K, e *entry[P]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.refcount--
	if e.refcount == 0 {
		delete(r.entries, key)
	}
}

// Acquire retrieves (or creates) the entry for key, calls acquire on its
// primitive, and on success returns a release func that is safe to call
// any number of times - only the first call unlocks the primitive (via
// release) and decrements the registry refcount; later calls are no-ops.
//
// On failure (acquire returns a non-nil error, e.g. context cancellation,
// or panics), the refcount is restored, via defer, before Acquire returns
// the error or the panic propagates - no failure path can leak a refcount.
func (r *Registry[K, P]) Acquire(
	ctx context.Context,
	key K,
	acquire func(p P, ctx context.Context) error,
	release func(p P),
) (releaseFn func(), err error) {
	e := r.getRef(key)

	acquired := false
	defer func() {
		if !acquired {
			r.putRef(key, e)
		}
	}()

	if err := acquire(e.primitive, ctx); err != nil {
		return nil, err
	}
	acquired = true

	var once sync.Once
	return func() {
		once.Do(func() {
			release(e.primitive)
			r.putRef(key, e)
		})
	}, nil
}
