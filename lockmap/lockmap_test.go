package lockmap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/joeycumines/go-asyncds/internal/asyncdstest"
)

func TestLockMap_emptyLockRelease(t *testing.T) {
	m := New[string]()
	require.Equal(t, 0, m.Count())

	h, err := m.Lock(context.Background(), `A`)
	require.NoError(t, err)
	require.Equal(t, 1, m.Count())

	h.Release()
	require.Equal(t, 0, m.Count())

	// idempotent
	h.Release()
	require.Equal(t, 0, m.Count())
}

func TestLockMap_tryLock(t *testing.T) {
	m := New[string]()

	h, ok := m.TryLock(`A`)
	require.True(t, ok)
	require.Equal(t, 1, m.Count())

	_, ok = m.TryLock(`A`)
	require.False(t, ok, `second TryLock on a held key should fail`)

	h.Release()
	require.Equal(t, 0, m.Count())

	h2, ok := m.TryLock(`A`)
	require.True(t, ok)
	h2.Release()
}

// Keyed mutual exclusion under load - spec.md scenario 6.
func TestLockMap_mutualExclusionUnderLoad(t *testing.T) {
	const n = 10_000

	m := New[string]()
	var counter int
	var gauge asyncdstest.ConcurrencyGauge

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			h, err := m.Lock(context.Background(), `A`)
			if err != nil {
				return err
			}
			defer h.Release()

			leave := gauge.Enter()
			counter++
			leave()

			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, int64(1), gauge.Max())
	require.Equal(t, n, counter)
	require.Equal(t, 0, m.Count())
}

// Key independence - spec.md scenario 7.
func TestLockMap_keyIndependence(t *testing.T) {
	const keys = 10
	const perKey = 1_000

	m := New[int]()
	gauges := make([]asyncdstest.ConcurrencyGauge, keys)
	counters := make([]int, keys)

	var g errgroup.Group
	for k := 0; k < keys; k++ {
		for i := 0; i < perKey; i++ {
			k := k
			g.Go(func() error {
				h, err := m.Lock(context.Background(), k)
				if err != nil {
					return err
				}
				defer h.Release()

				leave := gauges[k].Enter()
				counters[k]++
				leave()

				return nil
			})
		}
	}
	require.NoError(t, g.Wait())

	total := 0
	for k := 0; k < keys; k++ {
		require.Equal(t, int64(1), gauges[k].Max(), `key %d`, k)
		require.Equal(t, perKey, counters[k], `key %d`, k)
		total += counters[k]
	}
	require.Equal(t, keys*perKey, total)
	require.Equal(t, 0, m.Count())
}
