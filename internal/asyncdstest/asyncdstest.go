// Package asyncdstest centralizes small concurrency-testing helpers shared
// by the lockmap and rwlockmap test suites - notably the "hammer a shared
// resource from many goroutines, track the
// maximum number of simultaneous holders" pattern used by the keyed
// mutual-exclusion scenarios.
package asyncdstest

import (
	"sync/atomic"
)

// ConcurrencyGauge tracks the number of goroutines currently "inside" some
// section of code, and the maximum such count ever observed. It is safe for
// concurrent use.
type ConcurrencyGauge struct {
	current atomic.Int64
	max     atomic.Int64
}

// Enter records one more holder and returns a func that records its
// departure. Typical use: defer g.Enter()().
func (g *ConcurrencyGauge) Enter() func() {
	n := g.current.Add(1)
	for {
		prev := g.max.Load()
		if n <= prev || g.max.CompareAndSwap(prev, n) {
			break
		}
	}
	return func() { g.current.Add(-1) }
}

// Max returns the maximum number of simultaneous holders observed so far.
func (g *ConcurrencyGauge) Max() int64 {
	return g.max.Load()
}

// Current returns the number of holders presently inside the section.
func (g *ConcurrencyGauge) Current() int64 {
	return g.current.Load()
}
