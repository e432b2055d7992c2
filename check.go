package arena

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

type span struct {
	offset, length uint32
	free           bool
}

// Check verifies the bookkeeping: live ranges and holes are pairwise disjoint and exactly
// cover [0, nextFree), no two holes are adjacent, and every allocation holds a reference.
// A nil error means the arena is consistent.
func (m *Manager[K]) Check() error {
	var errs []error
	spans := make([]span, 0, m.allocs.Len()+m.free.len())

	var used uint64
	m.allocs.All(func(_ K, a Allocation) bool {
		if a.Refs == 0 {
			errs = append(errs, fmt.Errorf("allocation at %d holds no reference", a.Offset))
		}
		if a.Length == 0 {
			errs = append(errs, fmt.Errorf("allocation at %d is empty", a.Offset))
		}
		used += uint64(a.Length)
		spans = append(spans, span{a.Offset, a.Length, false})
		return true
	})
	if used != m.allocs.used {
		errs = append(errs, fmt.Errorf("used elements %d, allocations sum to %d", m.allocs.used, used))
	}

	var holes uint64
	for i, slots := 0, m.free.all(); i < len(slots); i++ {
		s := slots[i]
		if s.Length == 0 {
			errs = append(errs, fmt.Errorf("hole at %d is empty", s.Offset))
		}
		if i > 0 && slots[i-1].end() == s.Offset {
			errs = append(errs, fmt.Errorf("holes at %d and %d are adjacent", slots[i-1].Offset, s.Offset))
		}
		holes += uint64(s.Length)
		spans = append(spans, span{s.Offset, s.Length, true})
	}
	if holes != m.free.elements {
		errs = append(errs, fmt.Errorf("free elements %d, holes sum to %d", m.free.elements, holes))
	}

	slices.SortFunc(spans, func(a, b span) int {
		return cmp.Compare(a.offset, b.offset)
	})

	var pos uint64
	for _, s := range spans {
		off := uint64(s.offset)
		switch {
		case off < pos:
			errs = append(errs, fmt.Errorf("range at %d overlaps the range ending at %d", off, pos))
		case off > pos:
			errs = append(errs, fmt.Errorf("elements [%d, %d) are neither allocated nor free", pos, off))
		}
		pos = max(pos, off+uint64(s.length))
	}
	if pos != uint64(m.nextFree) {
		errs = append(errs, fmt.Errorf("ranges end at %d, high-water mark is %d", pos, m.nextFree))
	}
	if m.nextFree > m.maxElements {
		errs = append(errs, fmt.Errorf("high-water mark %d exceeds capacity %d", m.nextFree, m.maxElements))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrCorrupted, errors.Join(errs...))
}
