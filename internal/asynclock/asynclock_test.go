package asynclock

import (
	"context"
	"testing"
	"time"
)

func TestMutex_tryLock(t *testing.T) {
	m := New()
	if !m.TryLock() {
		t.Fatal(`expected first TryLock to succeed`)
	}
	if m.TryLock() {
		t.Fatal(`expected second TryLock to fail`)
	}
	m.Unlock()
	if !m.TryLock() {
		t.Fatal(`expected TryLock after Unlock to succeed`)
	}
}

func TestMutex_lockBlocksUntilUnlock(t *testing.T) {
	m := New()
	if err := m.Lock(context.Background()); err != nil {
		t.Fatal(err)
	}

	unlocked := make(chan struct{})
	go func() {
		if err := m.Lock(context.Background()); err != nil {
			t.Error(err)
		}
		close(unlocked)
	}()

	select {
	case <-unlocked:
		t.Fatal(`second Lock should not have succeeded yet`)
	case <-time.After(50 * time.Millisecond):
	}

	m.Unlock()

	select {
	case <-unlocked:
	case <-time.After(time.Second):
		t.Fatal(`timed out waiting for second Lock`)
	}
}

func TestMutex_lockCancel(t *testing.T) {
	m := New()
	if err := m.Lock(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer m.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := m.Lock(ctx); err != context.DeadlineExceeded {
		t.Fatalf(`got %v, want context.DeadlineExceeded`, err)
	}
}
