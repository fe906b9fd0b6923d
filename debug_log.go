package deferredmap

import "golang.org/x/exp/slog"

// DebugLogAllSlots calls logFunc for every occupied slot, in ascending
// slot-index order. This is a diagnostic walk intended for leak hunts.
func (m *Map[T]) DebugLogAllSlots(logger *slog.Logger, logFunc func(log *slog.Logger, key Key, value T)) {
	for i := range m.slots {
		s := &m.slots[i]
		if s.isOccupied() {
			logFunc(logger, makeKey(uint32(i), s.version), s.value)
		}
	}
}
