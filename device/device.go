// Package device provides the memory capability an arena region is carved from.
//
// An Allocator hands out one contiguous buffer per Allocate call and takes it back with
// Free. Callers treat the buffer as opaque: it may live on the Go heap, in an anonymous
// mapping, or in any other memory the implementation manages.
package device

import "errors"

var (
	// ErrInvalidSize is returned when a non-positive size is requested.
	ErrInvalidSize = errors.New("device: invalid size")
	// ErrBudgetExceeded is returned by a Limiter when the request does not fit its budget.
	ErrBudgetExceeded = errors.New("device: budget exceeded")
)

// Allocator is the allocate/free capability.
type Allocator interface {
	// Allocate returns a buffer of exactly size bytes.
	Allocate(size int) ([]byte, error)
	// Free releases a buffer previously returned by Allocate.
	Free(buf []byte) error
}

// Func adapts a pair of functions to Allocator.
// A nil FreeFn makes Free a no-op.
type Func struct {
	AllocFn func(size int) ([]byte, error)
	FreeFn  func(buf []byte) error
}

func (f Func) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return f.AllocFn(size)
}

func (f Func) Free(buf []byte) error {
	if f.FreeFn == nil {
		return nil
	}
	return f.FreeFn(buf)
}

// Heap allocates from the Go heap. Free is a no-op; the garbage collector reclaims the
// buffer once nothing references it.
type Heap struct{}

func (Heap) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return make([]byte, size), nil
}

func (Heap) Free([]byte) error {
	return nil
}
