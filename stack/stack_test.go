package stack

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestStack_pushThenTryPop(t *testing.T) {
	s := New[string]()

	if _, ok := s.TryPop(); ok {
		t.Fatal(`expected empty stack`)
	}

	s.Push(`x`)
	if v, ok := s.TryPop(); !ok || v != `x` {
		t.Fatalf(`got (%q, %v), want ("x", true)`, v, ok)
	}
	if s.Count() != 0 {
		t.Fatalf(`got count %d, want 0`, s.Count())
	}
}

// LIFO ordering - spec.md scenario 1.
func TestStack_lifoOrdering(t *testing.T) {
	s := New[string]()

	s.Push(`A`)
	s.Push(`B`)
	s.Push(`C`)

	for _, want := range []string{`C`, `B`, `A`} {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		v, err := s.Pop(ctx)
		cancel()
		if err != nil || v != want {
			t.Fatalf(`got (%q, %v), want (%q, nil)`, v, err, want)
		}
	}
}

// waitersLen safely reads the number of suspended Pop callers.
func waitersLen[T any](s *Stack[T]) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiters.Len()
}

func TestStack_popWaitsThenPush(t *testing.T) {
	s := New[int]()

	type result struct {
		v   int
		err error
	}
	resCh := make(chan result, 1)

	go func() {
		v, err := s.Pop(context.Background())
		resCh <- result{v, err}
	}()

	// give the Pop a chance to enqueue
	deadline := time.After(time.Second)
	for waitersLen(s) == 0 {
		select {
		case <-deadline:
			t.Fatal(`timed out waiting for pop to enqueue`)
		default:
		}
	}

	s.Push(42)

	select {
	case r := <-resCh:
		if r.err != nil || r.v != 42 {
			t.Fatalf(`got (%d, %v), want (42, nil)`, r.v, r.err)
		}
	case <-time.After(time.Second):
		t.Fatal(`timed out waiting for pop to resolve`)
	}

	if s.Count() != 0 {
		t.Fatalf(`got count %d, want 0`, s.Count())
	}
}

// Cancellation after enqueue - spec.md scenario 5.
func TestStack_cancelAfterEnqueueThenPush(t *testing.T) {
	s := New[string]()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	var gotErr error
	go func() {
		defer close(done)
		_, gotErr = s.Pop(ctx)
	}()

	// ensure the waiter is registered before cancelling
	for waitersLen(s) == 0 {
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-done

	if gotErr != context.Canceled {
		t.Fatalf(`got err %v, want context.Canceled`, gotErr)
	}

	s.Push(`A`)

	if got := s.Count(); got != 1 {
		t.Fatalf(`got count %d, want 1`, got)
	}
	if v, ok := s.TryPop(); !ok || v != `A` {
		t.Fatalf(`got (%q, %v), want ("A", true)`, v, ok)
	}
}

func TestStack_completeAllPop(t *testing.T) {
	s := New[string]()

	var wg sync.WaitGroup
	results := make([]string, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.Pop(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = v
		}(i)
	}

	for waitersLen(s) != 3 {
		time.Sleep(time.Millisecond)
	}

	s.CompleteAllPop(`X`)
	wg.Wait()

	for i, v := range results {
		if v != `X` {
			t.Errorf(`result[%d] = %q, want "X"`, i, v)
		}
	}
}

func TestStack_cancelAllPop(t *testing.T) {
	s := New[string]()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := s.Pop(ctx)
		done <- err
	}()

	for waitersLen(s) == 0 {
		time.Sleep(time.Millisecond)
	}

	s.CancelAllPop()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf(`got %v, want context.Canceled`, err)
		}
	case <-time.After(time.Second):
		t.Fatal(`timed out`)
	}
}
