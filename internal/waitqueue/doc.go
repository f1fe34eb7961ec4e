// Package waitqueue implements the FIFO wait-queue protocol shared by
// stack, queue, and boundedqueue: a cancellation-aware queue of suspended
// callers that a container's single mutex serializes alongside its storage.
//
// Every exported method except [WaitQueue.IsEmpty] and [WaitQueue.Len] must
// be called with the owning container's mutex held, and none of them block
// or suspend - callers wake up later, via the channel returned by
// [WaitQueue.Enqueue], not via a return from a method call on this type.
package waitqueue
