package rwlockmap

import (
	"context"
	"sync/atomic"

	"github.com/joeycumines/go-asyncds/internal/asyncrwlock"
	"github.com/joeycumines/go-asyncds/internal/keyedlock"
)

// RWLockMap is a per-key reader/writer lock registry. The zero value is not
// usable; construct with [New].
type RWLockMap[K comparable] struct {
	registry *keyedlock.Registry[K, *asyncrwlock.RWMutex]
}

// New returns an empty RWLockMap.
func New[K comparable]() *RWLockMap[K] {
	return &RWLockMap[K]{
		registry: keyedlock.NewRegistry[K, *asyncrwlock.RWMutex](asyncrwlock.New),
	}
}

// Count returns the number of keys currently present - i.e. with at least
// one outstanding reader, writer, or upgradeable-reader holder or waiter.
func (m *RWLockMap[K]) Count() int {
	return m.registry.Count()
}

// ReaderLock acquires a shared (reader) lock for key, creating its entry if
// this is the first reference, suspending until it is available or ctx is
// done. The returned handle's Release method must eventually be called; it
// is idempotent.
func (m *RWLockMap[K]) ReaderLock(ctx context.Context, key K) (*ReaderHandle, error) {
	release, err := m.registry.Acquire(ctx, key,
		func(p *asyncrwlock.RWMutex, ctx context.Context) error { return p.RLock(ctx) },
		func(p *asyncrwlock.RWMutex) { p.RUnlock() },
	)
	if err != nil {
		return nil, err
	}
	return &Handle{release: release}, nil
}

// WriterLock acquires an exclusive (writer) lock for key, creating its entry
// if this is the first reference, suspending until it is available or ctx
// is done. The returned handle's Release method must eventually be called;
// it is idempotent.
func (m *RWLockMap[K]) WriterLock(ctx context.Context, key K) (*Handle, error) {
	release, err := m.registry.Acquire(ctx, key,
		func(p *asyncrwlock.RWMutex, ctx context.Context) error { return p.Lock(ctx) },
		func(p *asyncrwlock.RWMutex) { p.Unlock() },
	)
	if err != nil {
		return nil, err
	}
	return &Handle{release: release}, nil
}

// UpgradeableReaderLock acquires an upgradeable reader lock for key,
// creating its entry if this is the first reference, suspending until it is
// available or ctx is done. The returned handle may later be upgraded, in
// place, to the writer lock via Upgrade.
func (m *RWLockMap[K]) UpgradeableReaderLock(ctx context.Context, key K) (*UpgradeableHandle, error) {
	h := new(UpgradeableHandle)
	release, err := m.registry.Acquire(ctx, key,
		func(p *asyncrwlock.RWMutex, ctx context.Context) error {
			h.primitive = p
			return p.RLockUpgradeable(ctx)
		},
		func(p *asyncrwlock.RWMutex) { p.ReleaseUpgradeable(h.upgraded.Load()) },
	)
	if err != nil {
		return nil, err
	}
	h.release = release
	return h, nil
}

// Handle is a scoped release handle for a reader or writer lock. Release is
// idempotent: only the first call has any effect.
type Handle struct {
	release func()
	done    atomic.Bool
}

// Release releases the held lock and this reference to its registry entry.
// Safe to call multiple times; only the first call has any effect.
func (h *Handle) Release() {
	if h.done.CompareAndSwap(false, true) {
		h.release()
	}
}

// ReaderHandle is the scoped release handle returned by ReaderLock. It is a
// distinct name for a [Handle] - plain readers never upgrade, so they need
// nothing beyond Release.
type ReaderHandle = Handle

// UpgradeableHandle is the scoped release handle returned by
// UpgradeableReaderLock. The registry entry it references is released
// exactly once - when this (outer) handle's Release is called - regardless
// of whether Upgrade was ever called on it.
type UpgradeableHandle struct {
	primitive *asyncrwlock.RWMutex
	release   func()
	upgraded  atomic.Bool
	done      atomic.Bool
}

// Upgraded reports whether this handle currently holds the writer lock, in
// place of the upgradeable reader lock, as a result of a prior Upgrade that
// has not since been reversed by downgrading its returned [Handle].
func (h *UpgradeableHandle) Upgraded() bool {
	return h.upgraded.Load()
}

// Upgrade transitions the held upgradeable reader lock to the exclusive
// writer lock, in place, suspending until every other concurrent reader has
// released or ctx is done. On success it returns a nested handle whose
// Release downgrades back to the upgradeable reader lock; it does not
// release the registry entry, which remains owned by h. On cancellation h
// still holds the (unupgraded) upgradeable reader lock.
func (h *UpgradeableHandle) Upgrade(ctx context.Context) (*Handle, error) {
	if err := h.primitive.Upgrade(ctx); err != nil {
		return nil, err
	}
	h.upgraded.Store(true)

	var once atomic.Bool
	return &Handle{release: func() {
		if once.CompareAndSwap(false, true) {
			h.primitive.Downgrade()
			h.upgraded.Store(false)
		}
	}}, nil
}

// Release releases the held lock (writer, if still upgraded; upgradeable
// reader, otherwise) and this reference to its registry entry. Safe to call
// multiple times; only the first call has any effect. Calling Release while
// a nested handle returned by Upgrade is still outstanding releases the
// writer lock directly, without requiring the nested handle to downgrade
// first.
func (h *UpgradeableHandle) Release() {
	if h.done.CompareAndSwap(false, true) {
		h.release()
	}
}
