package deferredmap

import (
	"sync/atomic"

	"github.com/ShaoG-R/deferred-map/dmutils"
	cerrors "github.com/cockroachdb/errors"
	"github.com/pkg/errors"
)

var nextMapID uint64

// Map is a generational slot-indexed container for values of type T.
//
// Insertion is a two-step protocol: AllocateHandle reserves a slot and
// returns a one-use Handle, and Insert consumes the handle to deposit the
// value. The key exposed by the handle is stable until the value is removed.
// Lookups reject keys whose embedded version word no longer matches the
// slot, so a removed key can never address a recycled slot's new value.
//
// A Map must be owned by a single logical actor at a time; it performs no
// internal locking.
type Map[T any] struct {
	slots    []slot[T]
	freeHead uint32
	numElems int
	mapID    uint64
}

// New creates a new empty Map.
func New[T any]() *Map[T] {
	return NewWithCapacity[T](0)
}

// NewWithCapacity creates an empty Map with backing storage preallocated for
// capacity slots. Len stays 0 and no slots are materialized.
func NewWithCapacity[T any](capacity int) *Map[T] {
	return &Map[T]{
		slots:    make([]slot[T], 0, capacity),
		freeHead: freeListSentinel,
		mapID:    atomic.AddUint64(&nextMapID, 1),
	}
}

// AllocateHandle reserves a slot and returns the one-use Handle that names
// it. The reservation does not count toward Len until the handle is consumed
// by Insert. It returns ErrOutOfSlots when the 32-bit index space is
// exhausted.
func (m *Map[T]) AllocateHandle() (*Handle, error) {
	var index uint32

	if m.freeHead != freeListSentinel {
		// Pop the head of the free list
		index = m.freeHead
		s := &m.slots[index]
		m.freeHead = s.nextFree

		// vacant -> reserved
		s.version += 1
	} else {
		if uint64(len(m.slots)) >= uint64(freeListSentinel) {
			return nil, cerrors.Wrapf(ErrOutOfSlots, "the map already holds %d slots", len(m.slots))
		}

		index = uint32(len(m.slots))
		m.slots = append(m.slots, slot[T]{
			version:  stateReserved,
			nextFree: freeListSentinel,
		})
	}

	dmutils.DebugValidate(m)

	// The handle exposes the key the slot will have once occupied, so the
	// minted version word is the reserved word advanced by the insert step.
	return &Handle{
		key:   makeKey(index, m.slots[index].version+2),
		mapID: m.mapID,
	}, nil
}

// Insert consumes the handle and deposits value into the reserved slot,
// transitioning it to occupied and incrementing Len. It returns the key
// under which the value is now addressable, which is the same key the handle
// reported before the insert.
func (m *Map[T]) Insert(handle *Handle, value T) (Key, error) {
	if err := m.checkHandle(handle); err != nil {
		return 0, err
	}

	s := &m.slots[handle.key.Index()]

	// reserved -> occupied
	s.value = value
	s.version += 2
	m.numElems++
	handle.used = true

	dmutils.DebugValidate(m)
	return handle.key, nil
}

// ReleaseHandle consumes the handle without inserting a value, returning the
// reserved slot to the free list with its generation advanced. The key the
// handle reported can never become valid afterward. Len is unchanged.
func (m *Map[T]) ReleaseHandle(handle *Handle) error {
	if err := m.checkHandle(handle); err != nil {
		return err
	}

	index := handle.key.Index()
	s := &m.slots[index]

	s.nextFree = m.freeHead
	m.freeHead = index

	// reserved -> vacant of the next generation
	s.version += 3
	handle.used = true

	dmutils.DebugValidate(m)
	return nil
}

func (m *Map[T]) checkHandle(handle *Handle) error {
	if handle.used {
		return cerrors.Wrapf(ErrHandleAlreadyUsed, "slot index %d", handle.key.Index())
	}
	if handle.mapID != m.mapID {
		return cerrors.Wrapf(ErrForeignHandle, "handle is from map %d, offered to map %d", handle.mapID, m.mapID)
	}

	index := handle.key.Index()
	dmutils.DebugAssert(int(index) < len(m.slots), "handle names slot %d but the map only holds %d slots", index, len(m.slots))
	if int(index) >= len(m.slots) {
		return cerrors.Wrapf(ErrStaleHandle, "slot index %d is out of bounds", index)
	}

	// The reserved word for the handle's generation is its occupied word
	// rewound by the insert step.
	if m.slots[index].version != handle.key.Version()-2 {
		return cerrors.Wrapf(ErrStaleHandle, "slot index %d", index)
	}

	return nil
}

// Get returns the value addressed by key, or the zero value and false when
// the key is stale, was released, or never addressed a value.
func (m *Map[T]) Get(key Key) (T, bool) {
	index := key.Index()
	if int(index) >= len(m.slots) {
		var zero T
		return zero, false
	}

	s := &m.slots[index]
	if s.version != key.Version() || !s.isOccupied() {
		var zero T
		return zero, false
	}

	return s.value, true
}

// GetMut returns a pointer to the value addressed by key for in-place
// mutation, or nil and false when the key does not address a value. The
// pointer is invalidated by any mutating call on the map and must not be
// retained across one.
func (m *Map[T]) GetMut(key Key) (*T, bool) {
	index := key.Index()
	if int(index) >= len(m.slots) {
		return nil, false
	}

	s := &m.slots[index]
	if s.version != key.Version() || !s.isOccupied() {
		return nil, false
	}

	return &s.value, true
}

// Remove moves the value addressed by key out of the map, recycles its slot
// with the generation advanced, and decrements Len. It returns the zero
// value and false when the key does not address a value.
func (m *Map[T]) Remove(key Key) (T, bool) {
	index := key.Index()
	if int(index) >= len(m.slots) {
		var zero T
		return zero, false
	}

	s := &m.slots[index]
	if s.version != key.Version() || !s.isOccupied() {
		var zero T
		return zero, false
	}

	value := s.value
	m.recycleOccupied(index, s)
	m.numElems--

	dmutils.DebugValidate(m)
	return value, true
}

// recycleOccupied moves an occupied slot onto the free list. The value cell
// is zeroed so the map stops referencing whatever the value points at.
func (m *Map[T]) recycleOccupied(index uint32, s *slot[T]) {
	var zero T
	s.value = zero

	s.nextFree = m.freeHead
	m.freeHead = index

	// occupied -> vacant of the next generation
	s.version += 1
}

// ContainsKey reports whether key currently addresses a value.
func (m *Map[T]) ContainsKey(key Key) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of occupied slots.
func (m *Map[T]) Len() int {
	return m.numElems
}

// IsEmpty reports whether the map holds no values.
func (m *Map[T]) IsEmpty() bool {
	return m.numElems == 0
}

// Cap returns the number of slots the backing storage can hold before it
// must grow again.
func (m *Map[T]) Cap() int {
	return cap(m.slots)
}

// Reserve grows the backing storage so that at least additional more slots
// can be materialized without reallocating. It never shrinks.
func (m *Map[T]) Reserve(additional int) {
	if additional <= cap(m.slots)-len(m.slots) {
		return
	}

	grown := make([]slot[T], len(m.slots), len(m.slots)+additional)
	copy(grown, m.slots)
	m.slots = grown
}

// ShrinkToFit reallocates the backing storage down to the materialized slot
// count. Slot contents, reservations and the free list are preserved; only
// unused trailing capacity is released. The map never shrinks on its own.
func (m *Map[T]) ShrinkToFit() {
	if cap(m.slots) == len(m.slots) {
		return
	}

	shrunk := make([]slot[T], len(m.slots))
	copy(shrunk, m.slots)
	m.slots = shrunk
}

// Clear removes every value, recycling each occupied slot with its
// generation advanced, and sets Len to 0. Reserved slots are left reserved:
// their handles are still outstanding and stay consumable. Capacity is
// unchanged.
func (m *Map[T]) Clear() {
	for i := range m.slots {
		s := &m.slots[i]
		if s.isOccupied() {
			m.recycleOccupied(uint32(i), s)
		}
	}
	m.numElems = 0

	dmutils.DebugValidate(m)
}

// Retain removes every value for which the predicate returns false,
// recycling slots exactly as Remove does. The predicate may mutate values
// in place through the pointer, but must not call back into the map.
func (m *Map[T]) Retain(predicate func(key Key, value *T) bool) {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.isOccupied() {
			continue
		}

		if !predicate(makeKey(uint32(i), s.version), &s.value) {
			m.recycleOccupied(uint32(i), s)
			m.numElems--
		}
	}

	dmutils.DebugValidate(m)
}

// ReclaimReservations force-releases every reserved slot back to the free
// list with its generation advanced, and returns the number of slots
// reclaimed. Every outstanding handle of this map becomes stale: consuming
// one afterward fails with ErrStaleHandle. This is an explicit recovery
// sweep for leaked handles, not part of normal operation.
func (m *Map[T]) ReclaimReservations() int {
	reclaimed := 0
	for i := range m.slots {
		s := &m.slots[i]
		if !s.isReserved() {
			continue
		}

		s.nextFree = m.freeHead
		m.freeHead = uint32(i)
		s.version += 3
		reclaimed++
	}

	dmutils.DebugValidate(m)
	return reclaimed
}

// Clone returns a structural copy of the map with a fresh map identity.
// Values are copied by assignment, so values holding pointers share their
// referents between the two maps. Handles minted by the source are foreign
// to the clone and fail with ErrForeignHandle when offered to it. Keys are
// pure data and stay valid on both copies.
func (m *Map[T]) Clone() *Map[T] {
	slots := make([]slot[T], len(m.slots), cap(m.slots))
	copy(slots, m.slots)

	return &Map[T]{
		slots:    slots,
		freeHead: m.freeHead,
		numElems: m.numElems,
		mapID:    atomic.AddUint64(&nextMapID, 1),
	}
}

// Range calls visit for each occupied slot in ascending slot-index order,
// stopping early if visit returns false. The map must not be mutated while
// Range is in progress.
func (m *Map[T]) Range(visit func(key Key, value T) bool) {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.isOccupied() {
			continue
		}

		if !visit(makeKey(uint32(i), s.version), s.value) {
			return
		}
	}
}

// RangeMut calls visit for each occupied slot in ascending slot-index order,
// passing a pointer for in-place mutation, stopping early if visit returns
// false. The callback must not call back into the map.
func (m *Map[T]) RangeMut(visit func(key Key, value *T) bool) {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.isOccupied() {
			continue
		}

		if !visit(makeKey(uint32(i), s.version), &s.value) {
			return
		}
	}
}

// Keys returns the keys of all occupied slots in ascending slot-index order.
func (m *Map[T]) Keys() []Key {
	keys := make([]Key, 0, m.numElems)
	m.Range(func(key Key, _ T) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Validate performs internal consistency checks on the map. When the
// implementation is functioning correctly it cannot return an error, but it
// may assist in diagnosing misuse that bypasses the type system.
func (m *Map[T]) Validate() error {
	var occupied, reserved, vacant int

	for i := range m.slots {
		s := &m.slots[i]
		switch s.stateBits() {
		case stateOccupied:
			occupied++
		case stateReserved:
			reserved++
		case stateVacant:
			vacant++
		default:
			return errors.Errorf("slot %d has the illegal state bits 0b10 in version word %#x", i, s.version)
		}
	}

	if occupied != m.numElems {
		return errors.Errorf("the map length is %d but %d slots are occupied", m.numElems, occupied)
	}

	// Walk the free list: every entry must be a distinct vacant slot, and
	// every vacant slot must be reachable.
	onFreeList := make(map[uint32]struct{}, vacant)
	for index := m.freeHead; index != freeListSentinel; {
		if int(index) >= len(m.slots) {
			return errors.Errorf("free list entry %d is out of bounds (%d slots)", index, len(m.slots))
		}
		if _, seen := onFreeList[index]; seen {
			return errors.Errorf("slot %d appears on the free list more than once", index)
		}

		s := &m.slots[index]
		if !s.isVacant() {
			return errors.Errorf("slot %d is on the free list but is %s", index, stateName(s.stateBits()))
		}

		onFreeList[index] = struct{}{}
		index = s.nextFree
	}

	if len(onFreeList) != vacant {
		return errors.Errorf("%d slots are vacant but %d are on the free list", vacant, len(onFreeList))
	}

	return nil
}

var _ dmutils.Validatable = &Map[int]{}
