package asyncrwlock

import (
	"context"
	"testing"
	"time"
)

func TestRWMutex_multipleReaders(t *testing.T) {
	m := New()
	ctx := context.Background()

	if err := m.RLock(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.RLock(ctx); err != nil {
		t.Fatal(err)
	}
	m.RUnlock()
	m.RUnlock()
}

func TestRWMutex_writerExcludesReaders(t *testing.T) {
	m := New()
	ctx := context.Background()

	if err := m.Lock(ctx); err != nil {
		t.Fatal(err)
	}

	readerCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := m.RLock(readerCtx); err != context.DeadlineExceeded {
		t.Fatalf(`got %v, want context.DeadlineExceeded`, err)
	}

	m.Unlock()

	if err := m.RLock(context.Background()); err != nil {
		t.Fatal(err)
	}
	m.RUnlock()
}

func TestRWMutex_upgrade(t *testing.T) {
	m := New()
	ctx := context.Background()

	if err := m.RLockUpgradeable(ctx); err != nil {
		t.Fatal(err)
	}

	// a plain reader can still join while the upgradeable reader is only reading
	if err := m.RLock(ctx); err != nil {
		t.Fatal(err)
	}

	// upgrade must wait for the plain reader to release
	upgradeCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := m.Upgrade(upgradeCtx); err != context.DeadlineExceeded {
		t.Fatalf(`got %v, want context.DeadlineExceeded`, err)
	}

	m.RUnlock()

	if err := m.Upgrade(context.Background()); err != nil {
		t.Fatal(err)
	}

	// now fully exclusive: a new reader must block
	readerCtx, cancel2 := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel2()
	if err := m.RLock(readerCtx); err != context.DeadlineExceeded {
		t.Fatalf(`got %v, want context.DeadlineExceeded`, err)
	}

	m.Downgrade()

	// back to upgradeable-reader (read) mode: a new reader may join
	if err := m.RLock(context.Background()); err != nil {
		t.Fatal(err)
	}
	m.RUnlock()
	m.RUnlockUpgradeable()
}

func TestRWMutex_onlyOneUpgradeableReaderAtATime(t *testing.T) {
	m := New()
	ctx := context.Background()

	if err := m.RLockUpgradeable(ctx); err != nil {
		t.Fatal(err)
	}

	secondCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := m.RLockUpgradeable(secondCtx); err != context.DeadlineExceeded {
		t.Fatalf(`got %v, want context.DeadlineExceeded`, err)
	}

	m.RUnlockUpgradeable()

	if err := m.RLockUpgradeable(context.Background()); err != nil {
		t.Fatal(err)
	}
	m.RUnlockUpgradeable()
}
