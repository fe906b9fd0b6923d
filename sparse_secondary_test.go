package deferredmap_test

import (
	"testing"

	deferredmap "github.com/ShaoG-R/deferred-map"
	"github.com/stretchr/testify/require"
)

func TestSparseSecondaryMapBasic(t *testing.T) {
	m := deferredmap.New[int]()
	sec := deferredmap.NewSparseSecondaryMap[string](8)

	require.True(t, sec.IsEmpty())

	handle, err := m.AllocateHandle()
	require.NoError(t, err)
	key, err := m.Insert(handle, 1)
	require.NoError(t, err)

	_, replaced := sec.Insert(key, "one")
	require.False(t, replaced)
	require.Equal(t, 1, sec.Len())
	require.True(t, sec.ContainsKey(key))

	value, ok := sec.Get(key)
	require.True(t, ok)
	require.Equal(t, "one", value)

	previous, replaced := sec.Insert(key, "uno")
	require.True(t, replaced)
	require.Equal(t, "one", previous)

	removed, ok := sec.Remove(key)
	require.True(t, ok)
	require.Equal(t, "uno", removed)
	require.True(t, sec.IsEmpty())

	_, ok = sec.Remove(key)
	require.False(t, ok)
}

func TestSparseSecondaryMapSparseIndices(t *testing.T) {
	m := deferredmap.New[int]()
	sec := deferredmap.NewSparseSecondaryMap[int](4)

	var keys []deferredmap.Key
	for i := 0; i < 1000; i++ {
		handle, err := m.AllocateHandle()
		require.NoError(t, err)
		key, err := m.Insert(handle, i)
		require.NoError(t, err)
		keys = append(keys, key)
	}

	// Only every hundredth key carries secondary data
	for i := 0; i < 1000; i += 100 {
		sec.Insert(keys[i], i)
	}

	require.Equal(t, 10, sec.Len())

	for i := 0; i < 1000; i++ {
		value, ok := sec.Get(keys[i])
		if i%100 == 0 {
			require.True(t, ok)
			require.Equal(t, i, value)
		} else {
			require.False(t, ok)
		}
	}
}

func TestSparseSecondaryMapStaleness(t *testing.T) {
	m := deferredmap.New[int]()
	sec := deferredmap.NewSparseSecondaryMap[int](4)

	handle, err := m.AllocateHandle()
	require.NoError(t, err)
	k1, err := m.Insert(handle, 100)
	require.NoError(t, err)

	sec.Insert(k1, 10)

	_, ok := m.Remove(k1)
	require.True(t, ok)

	next, err := m.AllocateHandle()
	require.NoError(t, err)
	require.Equal(t, k1.Index(), next.Index())
	k2, err := m.Insert(next, 200)
	require.NoError(t, err)

	_, ok = sec.Get(k2)
	require.False(t, ok)

	_, replaced := sec.Insert(k2, 20)
	require.False(t, replaced)

	value, ok := sec.Get(k2)
	require.True(t, ok)
	require.Equal(t, 20, value)

	_, ok = sec.Get(k1)
	require.False(t, ok)

	// An insert under the older key is ignored
	_, replaced = sec.Insert(k1, 999)
	require.False(t, replaced)

	value, ok = sec.Get(k2)
	require.True(t, ok)
	require.Equal(t, 20, value)
}

func TestSparseSecondaryMapRetainAndRange(t *testing.T) {
	m := deferredmap.New[int]()
	sec := deferredmap.NewSparseSecondaryMap[int](8)

	for i := 0; i < 10; i++ {
		handle, err := m.AllocateHandle()
		require.NoError(t, err)
		key, err := m.Insert(handle, i)
		require.NoError(t, err)
		sec.Insert(key, i)
	}

	sec.Retain(func(_ deferredmap.Key, value int) bool {
		return value%2 == 0
	})
	require.Equal(t, 5, sec.Len())

	sum := 0
	sec.Range(func(_ deferredmap.Key, value int) bool {
		require.Zero(t, value%2)
		sum += value
		return true
	})
	require.Equal(t, 20, sum)
}

func TestSparseSecondaryMapClear(t *testing.T) {
	m := deferredmap.New[int]()
	sec := deferredmap.NewSparseSecondaryMap[int](8)

	handle, err := m.AllocateHandle()
	require.NoError(t, err)
	key, err := m.Insert(handle, 1)
	require.NoError(t, err)

	sec.Insert(key, 10)
	sec.Clear()

	require.True(t, sec.IsEmpty())
	require.False(t, sec.ContainsKey(key))
}
