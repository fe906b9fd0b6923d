package deferredmap

import "math"

// freeListSentinel marks the end of the free list. The index math.MaxUint32
// is never handed out as a slot index.
const freeListSentinel uint32 = math.MaxUint32

// slot is one storage cell. Which of nextFree and value is live is decided
// by the state bits of the version word: nextFree while vacant, value while
// occupied, neither while reserved. Go has no untagged unions, so both
// fields exist at all times and value is zeroed whenever the slot leaves the
// occupied state.
type slot[T any] struct {
	version  uint32
	nextFree uint32
	value    T
}

func (s *slot[T]) stateBits() uint32 {
	return s.version & stateMask
}

func (s *slot[T]) isVacant() bool {
	return s.stateBits() == stateVacant
}

func (s *slot[T]) isReserved() bool {
	return s.stateBits() == stateReserved
}

func (s *slot[T]) isOccupied() bool {
	return s.stateBits() == stateOccupied
}

func (s *slot[T]) generation() uint32 {
	return s.version >> generationShift
}
