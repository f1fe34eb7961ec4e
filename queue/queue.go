package queue

import (
	"context"
	"sync"

	"github.com/joeycumines/go-asyncds/internal/ring"
	"github.com/joeycumines/go-asyncds/internal/waitqueue"
)

// Queue is an unbounded FIFO container. The zero value is not usable;
// construct with [New].
type Queue[T any] struct {
	mu      sync.Mutex
	storage ring.Ring[T]
	waiters *waitqueue.WaitQueue[struct{}, T]
}

// New returns an empty Queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.waiters = waitqueue.New[struct{}, T](&q.mu)
	return q
}

// Count returns the number of values currently stored. It does not include
// suspended Dequeue callers.
func (q *Queue[T]) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.storage.Len()
}

// TryPeek returns the head value without removing it, and true, or the zero
// value and false if the queue is empty. Never suspends.
func (q *Queue[T]) TryPeek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.storage.Len() == 0 {
		var zero T
		return zero, false
	}
	return q.storage.Front(), true
}

// TryDequeue removes and returns the head value, and true, or the zero
// value and false if the queue is empty. Never suspends.
func (q *Queue[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.storage.Len() == 0 {
		var zero T
		return zero, false
	}
	return q.storage.PopFront(), true
}

// Dequeue removes and returns the head value, suspending until one is
// available or ctx is done. A nil ctx causes a panic.
func (q *Queue[T]) Dequeue(ctx context.Context) (T, error) {
	if ctx == nil {
		panic("queue: nil context")
	}
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	q.mu.Lock()

	if q.storage.Len() > 0 {
		v := q.storage.PopFront()
		q.mu.Unlock()
		return v, nil
	}

	ch := q.waiters.Enqueue(ctx, struct{}{})
	q.mu.Unlock()

	res := <-ch
	if res.Cancelled {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		// resolved by CancelAllDequeue, a broadcast requiring no external
		// cancellation signal - ctx is still live, so there's nothing for
		// ctx.Err() to report; surface context.Canceled instead.
		return zero, context.Canceled
	}
	return res.Value, nil
}

// Enqueue stores value, or, if a Dequeue caller is already suspended
// waiting, hands the value directly to the longest-waiting such caller
// instead - the value never touches storage in that case.
func (q *Queue[T]) Enqueue(value T) {
	q.mu.Lock()

	if !q.waiters.IsEmpty() {
		release := q.waiters.Dequeue(value)
		q.mu.Unlock()
		release()
		return
	}

	q.storage.PushBack(value)
	q.mu.Unlock()
}

// CompleteAllDequeue resolves every currently-suspended Dequeue caller with
// value. Waiters registering afterwards are unaffected.
func (q *Queue[T]) CompleteAllDequeue(value T) {
	q.mu.Lock()
	release := q.waiters.DequeueAll(value)
	q.mu.Unlock()
	release()
}

// CancelAllDequeue cancels every currently-suspended Dequeue caller,
// regardless of whether its context has been cancelled. Waiters
// registering afterwards are unaffected.
func (q *Queue[T]) CancelAllDequeue() {
	q.mu.Lock()
	release := q.waiters.CancelAll()
	q.mu.Unlock()
	release()
}
