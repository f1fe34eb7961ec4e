package waitqueue

import (
	"container/list"
	"context"
	"sync/atomic"
)

type (
	// Result is delivered exactly once on the channel returned by
	// [WaitQueue.Enqueue]. Cancelled is true iff the waiter was removed by
	// its context being done or by a CancelAll call, rather than matched by
	// a Dequeue/DequeueAll call, in which case Value is the zero value.
	Result[V any] struct {
		Value     V
		Cancelled bool
	}

	// WaitQueue is a FIFO of single-shot suspension points. Each waiter
	// carries a payload of type P, fixed at Enqueue time and readable via
	// [WaitQueue.Front] without resolving the waiter - this is what lets a
	// bounded queue's Dequeue inspect (and then relocate) a suspended
	// putter's pending value. Resolution delivers a value of type V. A
	// taker queue (stack/queue/boundedqueue takers) has no use for a
	// payload and instantiates P as struct{}; a putter queue (boundedqueue
	// only) instantiates P as the container's element type and V as
	// struct{}, since a putter's future only ever signals completion.
	//
	// The zero value is not usable; construct with [New].
	WaitQueue[P, V any] struct {
		mu      Locker
		waiters list.List
	}

	// Locker is the subset of sync.Mutex used to re-enter the owning
	// container's critical section from a cancellation callback.
	Locker interface {
		Lock()
		Unlock()
	}

	waiter[P, V any] struct {
		payload  P
		ch       chan Result[V]
		elem     *list.Element
		resolved atomic.Bool
		stop     func() bool
	}
)

// New returns a WaitQueue whose cancellation callbacks re-acquire mu. mu
// must be the same mutex the caller holds whenever it calls any method
// other than IsEmpty/Len.
func New[P, V any](mu Locker) *WaitQueue[P, V] {
	return &WaitQueue[P, V]{mu: mu}
}

// Enqueue registers a new waiter carrying payload and returns the channel
// its result will be sent on exactly once. If ctx is already done, the
// returned channel is pre-filled with a cancelled Result and no entry is
// added to the queue.
//
// Must be called with the owning mutex held.
func (q *WaitQueue[P, V]) Enqueue(ctx context.Context, payload P) <-chan Result[V] {
	ch := make(chan Result[V], 1)

	if err := ctx.Err(); err != nil {
		ch <- Result[V]{Cancelled: true}
		return ch
	}

	w := &waiter[P, V]{payload: payload, ch: ch}
	w.elem = q.waiters.PushBack(w)
	w.stop = context.AfterFunc(ctx, func() { q.cancelWaiter(w) })

	return ch
}

// cancelWaiter runs (on its own goroutine, per context.AfterFunc) when the
// context associated with w is done. It is a no-op if w was already
// resolved by Dequeue/DequeueAll/CancelAll - whichever side wins the race
// to resolve w, the other is a no-op, per the idempotence contract.
func (q *WaitQueue[P, V]) cancelWaiter(w *waiter[P, V]) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !w.resolved.CompareAndSwap(false, true) {
		return
	}

	q.waiters.Remove(w.elem)
	w.ch <- Result[V]{Cancelled: true}
}

// Front returns the payload of the head waiter without resolving or
// removing it, and true, or the zero value and false if the queue is empty.
//
// Must be called with the owning mutex held.
func (q *WaitQueue[P, V]) Front() (P, bool) {
	front := q.waiters.Front()
	if front == nil {
		var zero P
		return zero, false
	}
	return front.Value.(*waiter[P, V]).payload, true
}

// Dequeue removes the head waiter and arranges for it to receive value.
// Panics if the queue is empty - callers must check IsEmpty first. The
// returned release func performs the actual channel send and must be
// called after the owning mutex is released, never while it is held.
//
// Must be called with the owning mutex held.
func (q *WaitQueue[P, V]) Dequeue(value V) (release func()) {
	front := q.waiters.Front()
	if front == nil {
		panic("waitqueue: Dequeue on empty queue")
	}

	w := front.Value.(*waiter[P, V])
	q.waiters.Remove(front)

	if !w.resolved.CompareAndSwap(false, true) {
		// lost the race to the waiter's own cancellation; nothing to send.
		return func() {}
	}

	return func() {
		w.stop()
		w.ch <- Result[V]{Value: value}
	}
}

// DequeueAll removes every waiter currently present and arranges for each
// to receive value. The returned release func must be called after the
// owning mutex is released.
//
// Must be called with the owning mutex held.
func (q *WaitQueue[P, V]) DequeueAll(value V) (release func()) {
	return q.drain(func(w *waiter[P, V]) { w.ch <- Result[V]{Value: value} })
}

// CancelAll removes every waiter currently present and resolves each as
// cancelled. The returned release func must be called after the owning
// mutex is released. No external cancellation signal is required - every
// present waiter is unconditionally cancelled.
//
// Must be called with the owning mutex held.
func (q *WaitQueue[P, V]) CancelAll() (release func()) {
	return q.drain(func(w *waiter[P, V]) { w.ch <- Result[V]{Cancelled: true} })
}

// drain removes every waiter in the queue and builds a single release func
// that resolves all of them, applying send to each in FIFO order.
func (q *WaitQueue[P, V]) drain(send func(w *waiter[P, V])) (release func()) {
	var resolved []*waiter[P, V]

	for e := q.waiters.Front(); e != nil; {
		next := e.Next()
		w := e.Value.(*waiter[P, V])
		q.waiters.Remove(e)
		if w.resolved.CompareAndSwap(false, true) {
			resolved = append(resolved, w)
		}
		e = next
	}

	return func() {
		for _, w := range resolved {
			w.stop()
			send(w)
		}
	}
}

// IsEmpty reports whether any waiter is currently present. Safe to call
// with or without the owning mutex held, but callers making subsequent
// decisions based on the result must hold it to avoid races.
func (q *WaitQueue[P, V]) IsEmpty() bool {
	return q.waiters.Len() == 0
}

// Len returns the current number of waiters present.
func (q *WaitQueue[P, V]) Len() int {
	return q.waiters.Len()
}
