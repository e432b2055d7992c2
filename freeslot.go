package arena

import "github.com/tidwall/btree"

// Slot is a hole in the arena: a free range of elements below the high-water mark.
type Slot struct {
	Offset uint32 `json:"offset"`
	Length uint32 `json:"length"`
}

func (s Slot) end() uint32 {
	return s.Offset + s.Length
}

// freeSlots maps hole offset to hole length, ordered by offset.
// No two retained slots are adjacent: put merges them.
type freeSlots struct {
	tr       btree.Map[uint32, uint32]
	elements uint64
}

func newFreeSlots() *freeSlots {
	return &freeSlots{}
}

// firstFit returns the lowest-offset slot holding at least length elements.
func (f *freeSlots) firstFit(length uint32) (s Slot, ok bool) {
	f.tr.Scan(func(off, n uint32) bool {
		if n >= length {
			s, ok = Slot{off, n}, true
			return false
		}
		return true
	})
	return
}

// prev returns the slot with the greatest offset below off.
func (f *freeSlots) prev(off uint32) (s Slot, ok bool) {
	f.tr.Descend(off, func(k, n uint32) bool {
		if k == off {
			return true
		}
		s, ok = Slot{k, n}, true
		return false
	})
	return
}

// next returns the slot with the smallest offset above off.
func (f *freeSlots) next(off uint32) (s Slot, ok bool) {
	f.tr.Ascend(off, func(k, n uint32) bool {
		if k == off {
			return true
		}
		s, ok = Slot{k, n}, true
		return false
	})
	return
}

// take carves length elements from the front of s, which must be a retained slot.
// The slot is removed on an exact fit, or replaced by its trailing remainder.
func (f *freeSlots) take(s Slot, length uint32) {
	f.tr.Delete(s.Offset)
	if s.Length > length {
		f.tr.Set(s.Offset+length, s.Length-length)
	}
	f.elements -= uint64(length)
}

// put returns s to the index, merging it with an adjacent successor and predecessor.
// It returns the slot s ended up in.
func (f *freeSlots) put(s Slot) Slot {
	f.elements += uint64(s.Length)

	if next, ok := f.next(s.Offset); ok && s.end() == next.Offset {
		f.tr.Delete(next.Offset)
		s.Length += next.Length
	}
	if prev, ok := f.prev(s.Offset); ok && prev.end() == s.Offset {
		prev.Length += s.Length
		s = prev
	}
	f.tr.Set(s.Offset, s.Length)
	return s
}

func (f *freeSlots) len() int {
	return f.tr.Len()
}

// largest returns the length of the biggest slot.
func (f *freeSlots) largest() (n uint32) {
	f.tr.Scan(func(_, length uint32) bool {
		n = max(n, length)
		return true
	})
	return
}

// all returns the slots in ascending offset order.
func (f *freeSlots) all() []Slot {
	slots := make([]Slot, 0, f.tr.Len())
	f.tr.Scan(func(off, n uint32) bool {
		slots = append(slots, Slot{off, n})
		return true
	})
	return slots
}
