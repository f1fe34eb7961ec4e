// Package boundedqueue implements a bounded FIFO container with
// backpressure, safe for concurrent use by multiple goroutines. Dequeue
// suspends when the queue is empty; Enqueue suspends when it is full. A
// capacity of zero is permitted and yields pure rendezvous: every value
// passes directly from an Enqueue caller to a Dequeue caller with nothing
// held in storage. The one exception is [BoundedQueue.CompleteAllEnqueue],
// which stores every suspended putter's value even beyond the capacity
// (including a capacity of zero).
//
// At most one of the taker wait queue and the putter wait queue is
// non-empty at any moment a method of BoundedQueue is not actively
// executing - this invariant is maintained across every method in this
// package, including the two broadcast pairs.
package boundedqueue
