package deferredmap

import (
	"github.com/dolthub/swiss"
)

type sparseEntry[U any] struct {
	version uint32
	value   U
}

// SparseSecondaryMap associates additional data with keys minted by a Map,
// like SecondaryMap, but backs the association with a hash table keyed by
// slot index instead of a dense slice. Use it when only a small fraction of
// the main map's key space carries secondary data, or when slot indices run
// high: memory is proportional to the number of entries, not to the largest
// index.
//
// The staleness rules are the same as SecondaryMap's. Values are stored by
// value inside the table, so there is no GetMut; re-Insert to update.
type SparseSecondaryMap[U any] struct {
	entries *swiss.Map[uint32, sparseEntry[U]]
}

// NewSparseSecondaryMap creates an empty SparseSecondaryMap sized for
// capacity entries.
func NewSparseSecondaryMap[U any](capacity uint32) *SparseSecondaryMap[U] {
	return &SparseSecondaryMap[U]{
		entries: swiss.NewMap[uint32, sparseEntry[U]](capacity),
	}
}

// Insert associates value with key. The generation rules match
// SecondaryMap.Insert: an exact key match replaces the value and returns the
// previous one, a newer key overwrites a stale entry, and an older key is
// ignored.
func (m *SparseSecondaryMap[U]) Insert(key Key, value U) (U, bool) {
	var zero U
	index := key.Index()

	entry, ok := m.entries.Get(index)
	if !ok {
		m.entries.Put(index, sparseEntry[U]{version: key.Version(), value: value})
		return zero, false
	}

	if entry.version == key.Version() {
		previous := entry.value
		m.entries.Put(index, sparseEntry[U]{version: key.Version(), value: value})
		return previous, true
	}

	if entry.version>>generationShift < key.Generation() {
		m.entries.Put(index, sparseEntry[U]{version: key.Version(), value: value})
	}

	return zero, false
}

// Get returns the value associated with key, or the zero value and false
// when no entry matches the key's generation.
func (m *SparseSecondaryMap[U]) Get(key Key) (U, bool) {
	entry, ok := m.entries.Get(key.Index())
	if !ok || entry.version != key.Version() {
		var zero U
		return zero, false
	}

	return entry.value, true
}

// Remove deletes the entry associated with key and returns its value, or the
// zero value and false when no entry matches.
func (m *SparseSecondaryMap[U]) Remove(key Key) (U, bool) {
	index := key.Index()

	entry, ok := m.entries.Get(index)
	if !ok || entry.version != key.Version() {
		var zero U
		return zero, false
	}

	m.entries.Delete(index)
	return entry.value, true
}

// ContainsKey reports whether an entry matching key exists.
func (m *SparseSecondaryMap[U]) ContainsKey(key Key) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries, including entries whose keys have gone
// stale in the main map.
func (m *SparseSecondaryMap[U]) Len() int {
	return m.entries.Count()
}

// IsEmpty reports whether the map holds no entries.
func (m *SparseSecondaryMap[U]) IsEmpty() bool {
	return m.entries.Count() == 0
}

// Clear removes every entry.
func (m *SparseSecondaryMap[U]) Clear() {
	m.entries = swiss.NewMap[uint32, sparseEntry[U]](uint32(m.entries.Count()))
}

// Retain removes every entry for which the predicate returns false.
func (m *SparseSecondaryMap[U]) Retain(predicate func(key Key, value U) bool) {
	var stale []uint32

	m.entries.Iter(func(index uint32, entry sparseEntry[U]) (stop bool) {
		if !predicate(makeKey(index, entry.version), entry.value) {
			stale = append(stale, index)
		}
		return false
	})

	for _, index := range stale {
		m.entries.Delete(index)
	}
}

// Range calls visit for each entry, stopping early if visit returns false.
// Unlike SecondaryMap.Range, the order of entries is unspecified. The map
// must not be mutated while Range is in progress.
func (m *SparseSecondaryMap[U]) Range(visit func(key Key, value U) bool) {
	m.entries.Iter(func(index uint32, entry sparseEntry[U]) (stop bool) {
		return !visit(makeKey(index, entry.version), entry.value)
	})
}
