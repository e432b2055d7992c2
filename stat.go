package arena

// Stats is a snapshot of arena usage, in elements unless noted.
type Stats struct {
	MaxElements uint64
	ElementSize uint64 // bytes
	NextFree    uint64

	Allocations  int
	UsedElements uint64

	// FreeSlots counts the holes below the high-water mark.
	FreeSlots    int
	HoleElements uint64
	// FreeElements counts every unused element: holes plus the untouched tail.
	FreeElements uint64
	// LargestFree is the largest length a single Reserve can currently get.
	LargestFree uint64

	Reserves uint64
	Releases uint64
	Failures uint64
}

// Stats returns a snapshot of the arena usage.
func (m *Manager[K]) Stats() (stat Stats) {
	tail := uint64(m.maxElements - m.nextFree)
	stat.MaxElements = uint64(m.maxElements)
	stat.ElementSize = uint64(m.elementSize)
	stat.NextFree = uint64(m.nextFree)
	stat.Allocations = m.allocs.Len()
	stat.UsedElements = m.allocs.used
	stat.FreeSlots = m.free.len()
	stat.HoleElements = m.free.elements
	stat.FreeElements = m.free.elements + tail
	stat.LargestFree = max(uint64(m.free.largest()), tail)
	stat.Reserves = m.reserves
	stat.Releases = m.releases
	stat.Failures = m.failures
	return
}

// add merges the stats of another arena, as for shards of a Sharded arena.
func (s *Stats) add(o Stats) {
	s.MaxElements += o.MaxElements
	s.ElementSize = max(s.ElementSize, o.ElementSize)
	s.NextFree += o.NextFree
	s.Allocations += o.Allocations
	s.UsedElements += o.UsedElements
	s.FreeSlots += o.FreeSlots
	s.HoleElements += o.HoleElements
	s.FreeElements += o.FreeElements
	s.LargestFree = max(s.LargestFree, o.LargestFree)
	s.Reserves += o.Reserves
	s.Releases += o.Releases
	s.Failures += o.Failures
}

// Utilization returns used / capacity in [0, 1].
func (s Stats) Utilization() float64 {
	if s.MaxElements == 0 {
		return 0
	}
	return float64(s.UsedElements) / float64(s.MaxElements)
}

// Fragmentation returns 1 - largest free range / free elements in [0, 1].
// 0 means all free space is reservable in one piece.
func (s Stats) Fragmentation() float64 {
	if s.FreeElements == 0 {
		return 0
	}
	return 1 - float64(s.LargestFree)/float64(s.FreeElements)
}
