package arena

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/s2"
)

// managerJSON is the bookkeeping of a Manager. Region contents are not included.
type managerJSON[K comparable] struct {
	MaxElements uint32       `json:"max_elements"`
	ElementSize uint32       `json:"element_size"`
	NextFree    uint32       `json:"next_free"`
	K           []K          `json:"keys"`
	A           []Allocation `json:"allocations"`
	F           []Slot       `json:"free_slots"`
}

// MarshalJSON encodes the bookkeeping. Keys must be encodable as JSON.
func (m *Manager[K]) MarshalJSON() ([]byte, error) {
	k := make([]K, 0, m.allocs.Len())
	a := make([]Allocation, 0, m.allocs.Len())

	m.allocs.All(func(key K, alloc Allocation) bool {
		k = append(k, key)
		a = append(a, alloc)
		return true
	})

	return sonic.Marshal(managerJSON[K]{
		MaxElements: m.maxElements,
		ElementSize: m.elementSize,
		NextFree:    m.nextFree,
		K:           k,
		A:           a,
		F:           m.free.all(),
	})
}

// Snapshot returns the bookkeeping as s2 compressed JSON.
func (m *Manager[K]) Snapshot() ([]byte, error) {
	src, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return s2.Encode(nil, src), nil
}

// Restore replaces the bookkeeping with a Snapshot taken from an arena of the same
// geometry. The region is left untouched. If the snapshot is inconsistent the current
// bookkeeping is kept and the error returned.
func (m *Manager[K]) Restore(data []byte) error {
	if m.mem == nil {
		return ErrNotInitialized
	}

	src, err := s2.Decode(nil, data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	var snap managerJSON[K]
	if err := sonic.Unmarshal(src, &snap); err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupted, err)
	}

	if snap.MaxElements != m.maxElements || snap.ElementSize != m.elementSize {
		return fmt.Errorf("%w: snapshot geometry %dx%d, arena is %dx%d", ErrCorrupted,
			snap.MaxElements, snap.ElementSize, m.maxElements, m.elementSize)
	}
	if len(snap.K) != len(snap.A) {
		return fmt.Errorf("%w: %d keys for %d allocations", ErrCorrupted, len(snap.K), len(snap.A))
	}

	allocs := newTable[K]()
	for i, key := range snap.K {
		allocs.Add(key, snap.A[i])
	}
	if allocs.Len() != len(snap.K) {
		return fmt.Errorf("%w: duplicate keys", ErrCorrupted)
	}
	free := newFreeSlots()
	for _, s := range snap.F {
		if _, ok := free.tr.Set(s.Offset, s.Length); ok {
			return fmt.Errorf("%w: duplicate hole at %d", ErrCorrupted, s.Offset)
		}
		free.elements += uint64(s.Length)
	}

	oldAllocs, oldFree, oldNext := m.allocs, m.free, m.nextFree
	m.allocs, m.free, m.nextFree = allocs, free, snap.NextFree
	if err := m.Check(); err != nil {
		m.allocs, m.free, m.nextFree = oldAllocs, oldFree, oldNext
		return err
	}

	m.logger.Info("arena restored",
		"allocations", allocs.Len(),
		"free_slots", free.len(),
		"next_free", snap.NextFree,
	)
	return nil
}
