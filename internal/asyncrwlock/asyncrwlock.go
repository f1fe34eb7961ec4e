// Package asyncrwlock implements the per-key reader/writer primitive with
// upgradeable-reader support consumed by rwlockmap, via internal/keyedlock.
//
// golang.org/x/sync/semaphore models a single weighted resource, which
// isn't expressive enough for the reader/writer/upgradeable three-way state
// machine this needs (acquiring a "reader" slot must stay compatible with
// other readers but not a writer, and the upgradeable reader must be able
// to transition in place, without releasing and re-acquiring). There is no
// third-party package in this module's lineage that already implements
// that state machine, so it is built here as a small monitor: a mutex
// guarding plain counters, with waiters parked in a select over ctx.Done()
// and a broadcast "state changed, recheck" channel - the same
// select(ctx.Done(), signal)-on-a-channel idiom used throughout this
// module's sibling packages (e.g. microbatch.Batcher.run, longpoll.Channel)
// generalized into a condition variable.
package asyncrwlock

import (
	"context"
	"sync"
)

// RWMutex is a context-cancellable reader/writer lock whose upgradeable
// reader can transition, in place, to holding the writer lock. The zero
// value is not usable; construct with [New].
type RWMutex struct {
	mu sync.Mutex

	activeReaders     int // includes the upgradeable reader, while not upgraded
	writerActive      bool
	upgradeableActive bool

	notify chan struct{}
}

// New returns an unlocked RWMutex.
func New() *RWMutex {
	return &RWMutex{notify: make(chan struct{})}
}

// wait blocks, re-evaluating ready under mu, until ready reports true (at
// which point commit runs, still under mu, and wait returns nil) or ctx is
// done (in which case wait returns ctx.Err()).
func (m *RWMutex) wait(ctx context.Context, ready func() bool, commit func()) error {
	m.mu.Lock()
	for {
		if err := ctx.Err(); err != nil {
			m.mu.Unlock()
			return err
		}

		if ready() {
			commit()
			m.mu.Unlock()
			return nil
		}

		ch := m.notify
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}

		m.mu.Lock()
	}
}

// wake notifies every waiter blocked in wait to recheck its condition.
// Must be called with mu held.
func (m *RWMutex) wake() {
	close(m.notify)
	m.notify = make(chan struct{})
}

// RLock acquires a shared (reader) lock, suspending until it is available
// or ctx is done.
func (m *RWMutex) RLock(ctx context.Context) error {
	return m.wait(ctx,
		func() bool { return !m.writerActive },
		func() { m.activeReaders++ },
	)
}

// RUnlock releases a shared (reader) lock acquired via RLock.
func (m *RWMutex) RUnlock() {
	m.mu.Lock()
	m.activeReaders--
	m.wake()
	m.mu.Unlock()
}

// Lock acquires an exclusive (writer) lock, suspending until it is
// available or ctx is done.
func (m *RWMutex) Lock(ctx context.Context) error {
	return m.wait(ctx,
		func() bool { return !m.writerActive && !m.upgradeableActive && m.activeReaders == 0 },
		func() { m.writerActive = true },
	)
}

// Unlock releases an exclusive (writer) lock acquired via Lock.
func (m *RWMutex) Unlock() {
	m.mu.Lock()
	m.writerActive = false
	m.wake()
	m.mu.Unlock()
}

// RLockUpgradeable acquires an upgradeable reader lock: compatible with any
// number of plain readers, mutually exclusive with the writer lock and with
// any other upgradeable reader. Suspends until available or ctx is done.
func (m *RWMutex) RLockUpgradeable(ctx context.Context) error {
	return m.wait(ctx,
		func() bool { return !m.writerActive && !m.upgradeableActive },
		func() {
			m.upgradeableActive = true
			m.activeReaders++
		},
	)
}

// RUnlockUpgradeable releases an upgradeable reader lock that was never
// upgraded.
func (m *RWMutex) RUnlockUpgradeable() {
	m.ReleaseUpgradeable(false)
}

// ReleaseUpgradeable fully releases an upgradeable reader lock regardless of
// whether it currently holds the writer lock (upgraded true) or is still in
// its original reader state (upgraded false). It is the caller's
// responsibility to pass the correct current state; used by rwlockmap to
// release its outer handle in one step whether or not a nested Upgrade was
// ever downgraded first.
func (m *RWMutex) ReleaseUpgradeable(upgraded bool) {
	m.mu.Lock()
	if upgraded {
		m.writerActive = false
	} else {
		m.activeReaders--
	}
	m.upgradeableActive = false
	m.wake()
	m.mu.Unlock()
}

// Upgrade transitions a held upgradeable reader lock to the exclusive
// writer lock, in place, suspending until every other concurrently-held
// reader has released or ctx is done. On success the caller holds the
// writer lock in place of the upgradeable reader lock; on cancellation the
// caller still holds the (unupgraded) upgradeable reader lock.
func (m *RWMutex) Upgrade(ctx context.Context) error {
	return m.wait(ctx,
		func() bool { return m.activeReaders == 1 }, // only the upgrading caller remains
		func() {
			m.activeReaders = 0
			m.writerActive = true
		},
	)
}

// Downgrade reverses Upgrade, restoring the upgradeable reader lock state.
func (m *RWMutex) Downgrade() {
	m.mu.Lock()
	m.writerActive = false
	m.activeReaders = 1
	m.wake()
	m.mu.Unlock()
}
