package deferredmap

// Handle is a one-use token for a reserved slot. It is created exclusively by
// Map.AllocateHandle and destroyed exclusively by Map.Insert or
// Map.ReleaseHandle, both of which consume it. A consumed handle fails any
// further use with ErrHandleAlreadyUsed.
//
// Handles must not be copied: the consume flag lives in the Handle value that
// AllocateHandle returned, and only that value is honored by the map.
type Handle struct {
	key   Key
	mapID uint64
	used  bool
}

// Key returns the key the slot will have once occupied. The key is valid for
// Get, Remove and ContainsKey immediately after the handle is consumed by
// Insert. The key may be read before Insert, for example to build value
// graphs whose nodes reference each other by key.
func (h *Handle) Key() Key {
	return h.key
}

// Index returns the slot index this handle reserves. Diagnostic use only.
func (h *Handle) Index() uint32 {
	return h.key.Index()
}

// Generation returns the generation of the reservation. Diagnostic use only.
func (h *Handle) Generation() uint32 {
	return h.key.Generation()
}
