package arena

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by Reserve before a successful Initialize.
	ErrNotInitialized = errors.New("arena: not initialized")
	// ErrAlreadyInitialized is returned by Initialize on a live arena. Finalize it first.
	ErrAlreadyInitialized = errors.New("arena: already initialized")
	// ErrOutOfMemory is returned when neither a hole nor the tail can hold the request.
	ErrOutOfMemory = errors.New("arena: out of memory")
	// ErrZeroLength is returned for a reservation of zero elements.
	ErrZeroLength = errors.New("arena: zero length reservation")
	// ErrInvalidOptions is returned for unusable options or arena geometry.
	ErrInvalidOptions = errors.New("arena/options: invalid options")
	// ErrRefOverflow is returned when a key already holds the maximum number of references.
	ErrRefOverflow = errors.New("arena: reference count overflow")
	// ErrCorrupted is returned when the bookkeeping breaks an invariant.
	ErrCorrupted = errors.New("arena: corrupted bookkeeping")
)

// InitError reports a failed device allocation during Initialize.
//
// The device error can be accessed via errors.Unwrap.
type InitError struct {
	Bytes int
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("arena: failed to allocate %d bytes of device memory: %v", e.Bytes, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
