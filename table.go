package arena

import "github.com/tidwall/hashmap"

// Allocation is the range owned by one key.
type Allocation struct {
	Offset uint32 `json:"offset"`
	Length uint32 `json:"length"`
	// Refs counts Reserve calls by the key not yet matched by Release.
	Refs uint32 `json:"refs"`
}

// End returns the offset one past the last element of the allocation.
func (a Allocation) End() uint32 {
	return a.Offset + a.Length
}

// table maps owner keys to their allocation, at most one per key.
type table[K comparable] struct {
	m hashmap.Map[K, Allocation]
	// used is the sum of all allocation lengths.
	used uint64
}

func newTable[K comparable]() *table[K] {
	return &table[K]{}
}

func (t *table[K]) Get(k K) (Allocation, bool) {
	if t.m.Len() == 0 {
		return Allocation{}, false
	}
	return t.m.Get(k)
}

// Add records a new allocation for k.
func (t *table[K]) Add(k K, a Allocation) {
	t.m.Set(k, a)
	t.used += uint64(a.Length)
}

// Update overwrites the refcount of an existing allocation.
func (t *table[K]) Update(k K, a Allocation) {
	t.m.Set(k, a)
}

func (t *table[K]) Delete(k K) {
	if a, ok := t.m.Delete(k); ok {
		t.used -= uint64(a.Length)
	}
}

func (t *table[K]) All(f func(K, Allocation) bool) {
	if t.m.Len() == 0 {
		return
	}
	t.m.Scan(f)
}

func (t *table[K]) Len() int {
	return t.m.Len()
}
