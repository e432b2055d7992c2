//go:build !unix

package device

// Mmap falls back to heap memory on platforms without anonymous mappings.
type Mmap struct{}

func (Mmap) Allocate(size int) ([]byte, error) {
	return Heap{}.Allocate(size)
}

func (Mmap) Free(buf []byte) error {
	return nil
}
