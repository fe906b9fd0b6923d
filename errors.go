package deferredmap

import "github.com/pkg/errors"

// ErrOutOfSlots is the error returned from AllocateHandle when the 32-bit slot index space is exhausted
var ErrOutOfSlots error = errors.New("slot index space is exhausted")

// ErrForeignHandle is the error returned from Insert or ReleaseHandle when the handle was minted by a different map
var ErrForeignHandle error = errors.New("handle was minted by a different map")

// ErrHandleAlreadyUsed is the error returned from Insert or ReleaseHandle when the handle has already been consumed
var ErrHandleAlreadyUsed error = errors.New("handle has already been consumed")

// ErrStaleHandle is the error returned from Insert or ReleaseHandle when the slot named by the handle
// is no longer reserved with a matching generation. It cannot occur while the handle protocol is honored.
var ErrStaleHandle error = errors.New("slot is no longer reserved for this handle")
