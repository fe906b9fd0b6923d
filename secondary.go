package deferredmap

import (
	"github.com/ShaoG-R/deferred-map/dmutils"
	"github.com/pkg/errors"
)

// secondarySlot needs its own presence flag: there is no reserved state
// here, and a zero version word is a legal stored word.
type secondarySlot[U any] struct {
	version uint32
	present bool
	value   U
}

// SecondaryMap associates additional data of type U with keys minted by a
// Map. It stores its own version word per slot index, so a key minted for a
// newer generation of a slot never matches an entry stored under an older
// one. Entries are never invalidated by main-map operations: an entry stored
// under a key that has since gone stale in the main map still answers to
// that old key until a newer-generation Insert overwrites it or it is
// removed, and it holds its storage until then.
//
// Like Map, a SecondaryMap is single-owner and performs no internal locking.
type SecondaryMap[U any] struct {
	slots    []secondarySlot[U]
	numElems int
}

// NewSecondaryMap creates a new empty SecondaryMap.
func NewSecondaryMap[U any]() *SecondaryMap[U] {
	return NewSecondaryMapWithCapacity[U](0)
}

// NewSecondaryMapWithCapacity creates an empty SecondaryMap with backing
// storage preallocated for capacity slot indices.
func NewSecondaryMapWithCapacity[U any](capacity int) *SecondaryMap[U] {
	return &SecondaryMap[U]{
		slots: make([]secondarySlot[U], 0, capacity),
	}
}

// Insert associates value with key, growing the storage to cover the key's
// slot index. When an entry already exists for the exact same key, its value
// is replaced and the previous value returned. When the existing entry
// belongs to an older generation it is overwritten without returning its
// value, since it described a different entity. An insert under a key older
// than the stored entry is ignored.
func (m *SecondaryMap[U]) Insert(key Key, value U) (U, bool) {
	var zero U
	index := int(key.Index())

	if index >= len(m.slots) {
		m.slots = append(m.slots, make([]secondarySlot[U], index+1-len(m.slots))...)
	}

	s := &m.slots[index]
	if !s.present {
		s.present = true
		s.version = key.Version()
		s.value = value
		m.numElems++
		return zero, false
	}

	if s.version == key.Version() {
		previous := s.value
		s.value = value
		return previous, true
	}

	if s.version>>generationShift < key.Generation() {
		s.version = key.Version()
		s.value = value
	}

	return zero, false
}

// Get returns the value associated with key, or the zero value and false
// when no entry matches the key's generation.
func (m *SecondaryMap[U]) Get(key Key) (U, bool) {
	index := int(key.Index())
	if index >= len(m.slots) {
		var zero U
		return zero, false
	}

	s := &m.slots[index]
	if !s.present || s.version != key.Version() {
		var zero U
		return zero, false
	}

	return s.value, true
}

// GetMut returns a pointer to the value associated with key for in-place
// mutation, or nil and false when no entry matches. The pointer is
// invalidated by any mutating call on this map.
func (m *SecondaryMap[U]) GetMut(key Key) (*U, bool) {
	index := int(key.Index())
	if index >= len(m.slots) {
		return nil, false
	}

	s := &m.slots[index]
	if !s.present || s.version != key.Version() {
		return nil, false
	}

	return &s.value, true
}

// Remove deletes the entry associated with key and returns its value, or the
// zero value and false when no entry matches.
func (m *SecondaryMap[U]) Remove(key Key) (U, bool) {
	index := int(key.Index())
	if index >= len(m.slots) {
		var zero U
		return zero, false
	}

	s := &m.slots[index]
	if !s.present || s.version != key.Version() {
		var zero U
		return zero, false
	}

	value := s.value
	*s = secondarySlot[U]{}
	m.numElems--
	return value, true
}

// ContainsKey reports whether an entry matching key exists.
func (m *SecondaryMap[U]) ContainsKey(key Key) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries, including entries whose keys have gone
// stale in the main map but have not been overwritten or removed here.
func (m *SecondaryMap[U]) Len() int {
	return m.numElems
}

// IsEmpty reports whether the map holds no entries.
func (m *SecondaryMap[U]) IsEmpty() bool {
	return m.numElems == 0
}

// Cap returns the number of slot indices the backing storage can cover
// before it must grow again.
func (m *SecondaryMap[U]) Cap() int {
	return cap(m.slots)
}

// Clear removes every entry. Capacity is unchanged.
func (m *SecondaryMap[U]) Clear() {
	for i := range m.slots {
		m.slots[i] = secondarySlot[U]{}
	}
	m.slots = m.slots[:0]
	m.numElems = 0
}

// Retain removes every entry for which the predicate returns false. This is
// the garbage-collection hook for entries whose main-map keys have gone
// stale.
func (m *SecondaryMap[U]) Retain(predicate func(key Key, value *U) bool) {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.present {
			continue
		}

		if !predicate(makeKey(uint32(i), s.version), &s.value) {
			*s = secondarySlot[U]{}
			m.numElems--
		}
	}
}

// Range calls visit for each entry in ascending slot-index order, stopping
// early if visit returns false. The map must not be mutated while Range is
// in progress.
func (m *SecondaryMap[U]) Range(visit func(key Key, value U) bool) {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.present {
			continue
		}

		if !visit(makeKey(uint32(i), s.version), s.value) {
			return
		}
	}
}

// RangeMut calls visit for each entry in ascending slot-index order, passing
// a pointer for in-place mutation, stopping early if visit returns false.
func (m *SecondaryMap[U]) RangeMut(visit func(key Key, value *U) bool) {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.present {
			continue
		}

		if !visit(makeKey(uint32(i), s.version), &s.value) {
			return
		}
	}
}

// Validate performs internal consistency checks on the map.
func (m *SecondaryMap[U]) Validate() error {
	present := 0
	for i := range m.slots {
		if m.slots[i].present {
			present++
		}
	}

	if present != m.numElems {
		return errors.Errorf("the map length is %d but %d entries are present", m.numElems, present)
	}

	return nil
}

var _ dmutils.Validatable = &SecondaryMap[int]{}
