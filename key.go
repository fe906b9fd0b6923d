// Package deferredmap provides a generational slot-indexed container that
// separates slot reservation from value storage. A caller first obtains a
// one-use Handle naming a reserved slot, learns the stable Key of that slot,
// and later either deposits a value into the slot or releases the
// reservation. Slots are recycled by advancing a per-slot generation so that
// stale keys are rejected on lookup.
package deferredmap

// Slot state occupies the low two bits of the version word, with the
// generation in the upper 30 bits. The version word advances by small
// constants so that every legal transition lands on a legal state:
// vacant +1 -> reserved, reserved +2 -> occupied, occupied +1 -> vacant of
// the next generation, reserved +3 -> vacant of the next generation. The
// generation wraps modulo 2^30 after roughly a billion recycles of a single
// slot.
const (
	stateVacant   uint32 = 0b00
	stateReserved uint32 = 0b01
	stateOccupied uint32 = 0b11

	stateMask       uint32 = 0b11
	generationShift        = 2
)

// Key is an opaque 64-bit token addressing a value in a Map. The low 32 bits
// are the slot index and the high 32 bits are the slot's version word at the
// time the key was minted. A key stays valid until the value behind it is
// removed; after that it can never address a value again, even if the slot
// is reused.
type Key uint64

func makeKey(index uint32, version uint32) Key {
	return Key(uint64(version)<<32 | uint64(index))
}

// Index returns the slot index addressed by this key. Diagnostic use only.
func (k Key) Index() uint32 {
	return uint32(k)
}

// Version returns the full version word embedded in this key, including the
// state bits. Diagnostic use only.
func (k Key) Version() uint32 {
	return uint32(k >> 32)
}

// Generation returns the generation counter embedded in this key, without
// the state bits. Diagnostic use only.
func (k Key) Generation() uint32 {
	return k.Version() >> generationShift
}

func stateName(bits uint32) string {
	switch bits {
	case stateVacant:
		return "Vacant"
	case stateReserved:
		return "Reserved"
	case stateOccupied:
		return "Occupied"
	}
	return "Invalid"
}
