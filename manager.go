// Package arena brokers space inside one pre-allocated device region among many owners.
//
// A Manager requests its region from a device.Allocator exactly once per Initialize and
// hands out contiguous element ranges to caller-supplied keys. Released ranges become
// holes that later reservations reuse first-fit; adjacent holes are merged. The region
// never grows and is never compacted.
//
// A Manager is NOT safe for concurrent use. Wrap it in a SyncManager, or partition keys
// across a Sharded arena, when several goroutines drive reservations.
package arena

import (
	"log/slog"
	"math"
)

// noCopy may be embedded into structs which must not be copied after first use.
// See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Manager hands out element ranges of one device region to owner keys.
type Manager[K comparable] struct {
	_ noCopy

	options Options
	logger  *slog.Logger

	mem         *region
	maxElements uint32
	elementSize uint32

	// nextFree is the high-water mark: everything at or above it has never been handed out.
	nextFree uint32

	allocs *table[K]
	free   *freeSlots

	// runtime stats.
	reserves uint64
	releases uint64
	failures uint64
}

// New returns an un-initialized Manager.
func New[K comparable](options Options) (*Manager[K], error) {
	if err := checkOptions(options); err != nil {
		return nil, err
	}
	return &Manager[K]{
		options: options,
		logger:  options.logger(),
		allocs:  newTable[K](),
		free:    newFreeSlots(),
	}, nil
}

// Initialize requests a region of maxElements*elementSize bytes from the device.
// On failure the manager stays un-initialized and rejects Reserve until a later
// Initialize succeeds.
func (m *Manager[K]) Initialize(maxElements, elementSize uint32) error {
	if m.mem != nil {
		return ErrAlreadyInitialized
	}
	size, err := regionSize(maxElements, elementSize)
	if err != nil {
		return err
	}

	mem, err := allocRegion(m.options.Device, size)
	if err != nil {
		m.logger.Error("device allocation failed",
			"bytes", size,
			"error", err,
		)
		return err
	}

	m.mem = mem
	m.maxElements = maxElements
	m.elementSize = elementSize
	m.logger.Info("arena initialized",
		"bytes", size,
		"max_elements", maxElements,
		"element_size", elementSize,
	)
	return nil
}

// Finalize frees the region and clears all bookkeeping. It is idempotent and always
// leaves the manager ready for a new Initialize; a device error is still returned.
func (m *Manager[K]) Finalize() error {
	var err error
	if m.mem != nil {
		err = m.mem.free()
		if err != nil {
			m.logger.Warn("device free failed", "error", err)
		}
		m.logger.Info("arena finalized",
			"allocations", m.allocs.Len(),
			"next_free", m.nextFree,
		)
	}

	m.mem = nil
	m.maxElements = 0
	m.elementSize = 0
	m.nextFree = 0
	m.allocs = newTable[K]()
	m.free = newFreeSlots()
	m.reserves, m.releases, m.failures = 0, 0, 0
	return err
}

// Close finalizes the arena.
func (m *Manager[K]) Close() error {
	return m.Finalize()
}

// Reserve returns the offset of a range of length elements owned by key.
//
// If key already owns a range, its refcount is incremented and the existing offset is
// returned whatever length is passed; past math.MaxUint32 references ErrRefOverflow is
// returned instead. Otherwise the lowest-offset hole that fits is used, then the untouched
// tail. ErrOutOfMemory leaves the arena unchanged.
func (m *Manager[K]) Reserve(key K, length uint32) (uint32, error) {
	if m.mem == nil {
		return 0, ErrNotInitialized
	}

	if a, ok := m.allocs.Get(key); ok {
		if a.Refs == math.MaxUint32 {
			return 0, ErrRefOverflow
		}
		a.Refs++
		m.allocs.Update(key, a)
		m.reserves++
		return a.Offset, nil
	}

	if length == 0 {
		return 0, ErrZeroLength
	}

	offset, ok := m.carve(length)
	if !ok {
		m.failures++
		m.logger.Debug("arena out of memory",
			"length", length,
			"next_free", m.nextFree,
			"max_elements", m.maxElements,
		)
		return 0, ErrOutOfMemory
	}

	m.allocs.Add(key, Allocation{Offset: offset, Length: length, Refs: 1})
	m.reserves++
	debugValidate(m)
	return offset, nil
}

// carve takes length elements from the first fitting hole, else from the tail.
func (m *Manager[K]) carve(length uint32) (uint32, bool) {
	if s, ok := m.free.firstFit(length); ok {
		m.free.take(s, length)
		return s.Offset, true
	}

	if uint64(m.nextFree)+uint64(length) > uint64(m.maxElements) {
		return 0, false
	}
	offset := m.nextFree
	m.nextFree += length
	return offset, true
}

// Release drops one reference of key. The last reference returns the range to the free
// pool. Unknown keys are ignored.
func (m *Manager[K]) Release(key K) {
	a, ok := m.allocs.Get(key)
	if !ok {
		return
	}
	m.releases++

	a.Refs--
	if a.Refs > 0 {
		m.allocs.Update(key, a)
		return
	}

	m.allocs.Delete(key)
	m.free.put(Slot{Offset: a.Offset, Length: a.Length})
	debugValidate(m)
}

// GetOffset returns the offset of the range owned by key.
func (m *Manager[K]) GetOffset(key K) (uint32, bool) {
	a, ok := m.allocs.Get(key)
	return a.Offset, ok
}

// Lookup returns the allocation owned by key.
func (m *Manager[K]) Lookup(key K) (Allocation, bool) {
	return m.allocs.Get(key)
}

// Refs returns the outstanding reservations of key, 0 if it owns nothing.
func (m *Manager[K]) Refs(key K) uint32 {
	a, _ := m.allocs.Get(key)
	return a.Refs
}

// Bytes returns the region bytes of the range owned by key.
// The slice is valid until Finalize, and only while m is reachable: a dropped Manager frees
// its region when collected. Use runtime.KeepAlive(m) after the last use of the slice.
func (m *Manager[K]) Bytes(key K) ([]byte, bool) {
	a, ok := m.allocs.Get(key)
	if !ok || m.mem == nil {
		return nil, false
	}
	return m.mem.slice(a.Offset, a.Length, m.elementSize), true
}

// Region returns the whole device region, nil if un-initialized.
// Like Bytes, the slice does not keep m alive.
func (m *Manager[K]) Region() []byte {
	if m.mem == nil {
		return nil
	}
	return m.mem.buf
}

// Initialized reports whether the arena holds a region.
func (m *Manager[K]) Initialized() bool {
	return m.mem != nil
}

// MaxElements returns the capacity in elements.
func (m *Manager[K]) MaxElements() uint32 {
	return m.maxElements
}

// ElementSize returns the byte size of one element.
func (m *Manager[K]) ElementSize() uint32 {
	return m.elementSize
}

// NextFree returns the high-water mark.
func (m *Manager[K]) NextFree() uint32 {
	return m.nextFree
}

// Len returns the number of live allocations.
func (m *Manager[K]) Len() int {
	return m.allocs.Len()
}

// Range calls f for every live allocation until f returns false. Order is unspecified.
func (m *Manager[K]) Range(f func(key K, a Allocation) bool) {
	m.allocs.All(f)
}

// FreeSlots returns the holes in ascending offset order.
func (m *Manager[K]) FreeSlots() []Slot {
	return m.free.all()
}
