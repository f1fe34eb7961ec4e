package stack

import (
	"context"
	"sync"

	"github.com/joeycumines/go-asyncds/internal/waitqueue"
)

// Stack is an unbounded LIFO container. The zero value is not usable;
// construct with [New].
type Stack[T any] struct {
	mu      sync.Mutex
	storage []T
	waiters *waitqueue.WaitQueue[struct{}, T]
}

// New returns an empty Stack.
func New[T any]() *Stack[T] {
	s := &Stack[T]{}
	s.waiters = waitqueue.New[struct{}, T](&s.mu)
	return s
}

// Count returns the number of values currently stored. It does not include
// suspended Pop callers.
func (s *Stack[T]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.storage)
}

// TryPeek returns the top value without removing it, and true, or the zero
// value and false if the stack is empty. Never suspends.
func (s *Stack[T]) TryPeek() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.storage) == 0 {
		var zero T
		return zero, false
	}
	return s.storage[len(s.storage)-1], true
}

// TryPop removes and returns the top value, and true, or the zero value and
// false if the stack is empty. Never suspends.
func (s *Stack[T]) TryPop() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.storage) == 0 {
		var zero T
		return zero, false
	}

	n := len(s.storage) - 1
	v := s.storage[n]
	var zero T
	s.storage[n] = zero
	s.storage = s.storage[:n]
	return v, true
}

// Pop removes and returns the top value, suspending until one is available
// or ctx is done. A nil ctx causes a panic.
func (s *Stack[T]) Pop(ctx context.Context) (T, error) {
	if ctx == nil {
		panic("stack: nil context")
	}
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	s.mu.Lock()

	if n := len(s.storage) - 1; n >= 0 {
		v := s.storage[n]
		var zero T
		s.storage[n] = zero
		s.storage = s.storage[:n]
		s.mu.Unlock()
		return v, nil
	}

	ch := s.waiters.Enqueue(ctx, struct{}{})
	s.mu.Unlock()

	res := <-ch
	if res.Cancelled {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		// resolved by CancelAllPop, a broadcast requiring no external
		// cancellation signal - ctx is still live, so there's nothing for
		// ctx.Err() to report; surface context.Canceled instead.
		return zero, context.Canceled
	}
	return res.Value, nil
}

// Push stores value, or, if a Pop caller is already suspended waiting, hands
// the value directly to the longest-waiting such caller instead - the value
// never touches storage in that case.
func (s *Stack[T]) Push(value T) {
	s.mu.Lock()

	if !s.waiters.IsEmpty() {
		release := s.waiters.Dequeue(value)
		s.mu.Unlock()
		release()
		return
	}

	s.storage = append(s.storage, value)
	s.mu.Unlock()
}

// CompleteAllPop resolves every currently-suspended Pop caller with value.
// Waiters registering afterwards are unaffected.
func (s *Stack[T]) CompleteAllPop(value T) {
	s.mu.Lock()
	release := s.waiters.DequeueAll(value)
	s.mu.Unlock()
	release()
}

// CancelAllPop cancels every currently-suspended Pop caller, regardless of
// whether its context has been cancelled. Waiters registering afterwards
// are unaffected.
func (s *Stack[T]) CancelAllPop() {
	s.mu.Lock()
	release := s.waiters.CancelAll()
	s.mu.Unlock()
	release()
}
