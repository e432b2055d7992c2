//go:build unix

package device

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Mmap allocates anonymous private mappings outside the Go heap, so large regions add
// no GC scanning work. Buffers must be passed back to Free unmodified.
type Mmap struct{}

func (Mmap) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("device: mmap %d bytes: %w", size, err)
	}
	return data, nil
}

func (Mmap) Free(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if err := unix.Munmap(buf); err != nil {
		return fmt.Errorf("device: munmap %d bytes: %w", len(buf), err)
	}
	return nil
}
