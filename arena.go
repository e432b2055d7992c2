package arena

import (
	"fmt"
	"math"
	"runtime"

	"github.com/xgzlucario/devarena/device"
)

// region is the device memory an arena hands out ranges of.
// It is requested once per Initialize and freed once per Finalize.
type region struct {
	dev device.Allocator
	buf []byte
}

// regionSize returns the byte size of maxElements elements of elementSize bytes.
func regionSize(maxElements, elementSize uint32) (int, error) {
	if maxElements == 0 {
		return 0, fmt.Errorf("%w: zero max elements", ErrInvalidOptions)
	}
	if elementSize == 0 {
		return 0, fmt.Errorf("%w: zero element size", ErrInvalidOptions)
	}
	size := uint64(maxElements) * uint64(elementSize)
	if size > math.MaxInt {
		return 0, fmt.Errorf("%w: region of %d bytes overflows int", ErrInvalidOptions, size)
	}
	return int(size), nil
}

func allocRegion(dev device.Allocator, size int) (*region, error) {
	buf, err := dev.Allocate(size)
	if err != nil {
		return nil, &InitError{Bytes: size, Err: err}
	}
	if len(buf) < size {
		_ = dev.Free(buf)
		return nil, &InitError{Bytes: size, Err: device.ErrInvalidSize}
	}

	r := &region{dev: dev, buf: buf}
	// free the device memory if the owner is dropped without Finalize.
	runtime.SetFinalizer(r, (*region).free)
	return r, nil
}

// free is idempotent.
func (r *region) free() error {
	if r == nil || r.buf == nil {
		return nil
	}
	runtime.SetFinalizer(r, nil)
	buf := r.buf
	r.buf = nil
	return r.dev.Free(buf)
}

// slice returns the bytes of elements [offset, offset+length).
func (r *region) slice(offset, length, elementSize uint32) []byte {
	start := int(offset) * int(elementSize)
	end := start + int(length)*int(elementSize)
	return r.buf[start:end:end]
}
