package boundedqueue

import (
	"context"
	"errors"
	"sync"

	"github.com/joeycumines/go-asyncds/internal/ring"
	"github.com/joeycumines/go-asyncds/internal/waitqueue"
)

// ErrNegativeCapacity is returned by [New] when given a negative capacity.
var ErrNegativeCapacity = errors.New("boundedqueue: capacity must not be negative")

// BoundedQueue is a bounded FIFO container with backpressure. The zero
// value is not usable; construct with [New].
type BoundedQueue[T any] struct {
	mu       sync.Mutex
	capacity int
	storage  ring.Ring[T]
	// takers suspend when the queue is empty; putters suspend when it is
	// full. By invariant at most one of the two is ever non-empty.
	takers  *waitqueue.WaitQueue[struct{}, T]
	putters *waitqueue.WaitQueue[T, struct{}]
}

// New returns an empty BoundedQueue with the given capacity. Capacity zero
// yields pure rendezvous. A negative capacity returns ErrNegativeCapacity.
func New[T any](capacity int) (*BoundedQueue[T], error) {
	if capacity < 0 {
		return nil, ErrNegativeCapacity
	}

	q := &BoundedQueue[T]{capacity: capacity}
	q.takers = waitqueue.New[struct{}, T](&q.mu)
	q.putters = waitqueue.New[T, struct{}](&q.mu)
	return q, nil
}

// Count returns the number of values currently stored.
func (q *BoundedQueue[T]) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.storage.Len()
}

// Capacity returns the immutable capacity this queue was constructed with.
func (q *BoundedQueue[T]) Capacity() int {
	return q.capacity
}

// TryPeek returns the head value without removing it, and true, or the zero
// value and false if the queue is empty. Never suspends.
func (q *BoundedQueue[T]) TryPeek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.storage.Len() == 0 {
		var zero T
		return zero, false
	}
	return q.storage.Front(), true
}

// TryDequeue removes and returns the head value, and true, waking a
// suspended putter (moving its pending value into the now-freed slot) if
// one is present. Returns the zero value and false if the queue is empty -
// including the zero-capacity case where a putter is rendezvousing; that
// handoff requires suspension on the Dequeue side and so is not available
// via TryDequeue. Never suspends.
func (q *BoundedQueue[T]) TryDequeue() (T, bool) {
	q.mu.Lock()

	n := q.storage.Len()
	if n == 0 {
		q.mu.Unlock()
		var zero T
		return zero, false
	}

	v := q.storage.PopFront()
	release := q.wakePutterLocked(n)
	q.mu.Unlock()

	if release != nil {
		release()
	}
	return v, true
}

// Dequeue removes and returns the head value, suspending until one is
// available or ctx is done. A nil ctx causes a panic.
func (q *BoundedQueue[T]) Dequeue(ctx context.Context) (T, error) {
	if ctx == nil {
		panic("boundedqueue: nil context")
	}
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	q.mu.Lock()

	if n := q.storage.Len(); n > 0 {
		v := q.storage.PopFront()
		release := q.wakePutterLocked(n)
		q.mu.Unlock()
		if release != nil {
			release()
		}
		return v, nil
	}

	// storage is empty: only possible putter is a zero-capacity rendezvous.
	if val, ok := q.putters.Front(); ok {
		release := q.putters.Dequeue(struct{}{})
		q.mu.Unlock()
		release()
		return val, nil
	}

	ch := q.takers.Enqueue(ctx, struct{}{})
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

// wakePutterLocked, called immediately after popping the head value from
// storage, with preLen the storage length before that pop, wakes the head
// putter - if preLen equaled capacity and a putter is waiting - placing its
// pending value at the tail of storage. Must be called with the mutex
// held; returns a release func to invoke after unlocking, or nil.
func (q *BoundedQueue[T]) wakePutterLocked(preLen int) (release func()) {
	if preLen != q.capacity {
		return nil
	}
	val, ok := q.putters.Front()
	if !ok {
		return nil
	}
	release = q.putters.Dequeue(struct{}{})
	q.storage.PushBack(val)
	return release
}

// TryEnqueue stores value and returns true, or, if a Dequeue caller is
// already suspended waiting, hands value directly to it instead. Returns
// false if the queue is full. Never suspends.
func (q *BoundedQueue[T]) TryEnqueue(value T) bool {
	q.mu.Lock()

	if !q.takers.IsEmpty() {
		release := q.takers.Dequeue(value)
		q.mu.Unlock()
		release()
		return true
	}

	if q.storage.Len() < q.capacity {
		q.storage.PushBack(value)
		q.mu.Unlock()
		return true
	}

	q.mu.Unlock()
	return false
}

// Enqueue stores value, hands it directly to an already-suspended Dequeue
// caller, or suspends until capacity frees up or ctx is done. A nil ctx
// causes a panic.
func (q *BoundedQueue[T]) Enqueue(ctx context.Context, value T) error {
	if ctx == nil {
		panic("boundedqueue: nil context")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()

	if !q.takers.IsEmpty() {
		release := q.takers.Dequeue(value)
		q.mu.Unlock()
		release()
		return nil
	}

	if q.storage.Len() < q.capacity {
		q.storage.PushBack(value)
		q.mu.Unlock()
		return nil
	}

	ch := q.putters.Enqueue(ctx, value)
	q.mu.Unlock()

	res := <-ch
	if res.Cancelled {
		if err := ctx.Err(); err != nil {
			return err
		}
		// resolved by CancelAllEnqueue, a broadcast requiring no external
		// cancellation signal - ctx is still live, so there's nothing for
		// ctx.Err() to report; surface context.Canceled instead.
		return context.Canceled
	}
	return nil
}

// CompleteAllDequeue resolves every currently-suspended Dequeue caller with
// value. Waiters registering afterwards are unaffected.
func (q *BoundedQueue[T]) CompleteAllDequeue(value T) {
	q.mu.Lock()
	release := q.takers.DequeueAll(value)
	q.mu.Unlock()
	release()
}

// CancelAllDequeue cancels every currently-suspended Dequeue caller.
// Waiters registering afterwards are unaffected.
func (q *BoundedQueue[T]) CancelAllDequeue() {
	q.mu.Lock()
	release := q.takers.CancelAll()
	q.mu.Unlock()
	release()
}

// CompleteAllEnqueue resolves every currently-suspended Enqueue caller as
// successfully completed, placing each of their pending values into
// storage in FIFO order (capacity permitting growth beyond the configured
// limit for this one operation, since every one of them already committed
// to a slot the instant it suspended - see spec §4.4 putter wakeup
// semantics). Waiters registering afterwards are unaffected.
func (q *BoundedQueue[T]) CompleteAllEnqueue() {
	q.mu.Lock()
	var releases []func()
	for {
		val, ok := q.putters.Front()
		if !ok {
			break
		}
		releases = append(releases, q.putters.Dequeue(struct{}{}))
		q.storage.PushBack(val)
	}
	q.mu.Unlock()

	for _, release := range releases {
		release()
	}
}

// CancelAllEnqueue cancels every currently-suspended Enqueue caller.
// Waiters registering afterwards are unaffected.
func (q *BoundedQueue[T]) CancelAllEnqueue() {
	q.mu.Lock()
	release := q.putters.CancelAll()
	q.mu.Unlock()
	release()
}
