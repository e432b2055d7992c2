package arena

import "math"

// Location is the position of a reservation in a Sharded arena.
// +-----------------------+-------------------------+
// |       shard(32)       |       offset(32)        |
// +-----------------------+-------------------------+
type Location uint64

const offsetMask = math.MaxUint32

func newLocation(shard int, offset uint32) Location {
	if shard < 0 || uint64(shard) > math.MaxUint32 {
		panic("shard overflows the limit of uint32")
	}
	return Location(uint64(shard)<<32 | uint64(offset))
}

// Shard returns the index of the shard holding the range.
func (l Location) Shard() int {
	return int(l >> 32)
}

// Offset returns the element offset inside the shard's region.
func (l Location) Offset() uint32 {
	return uint32(l & offsetMask)
}
