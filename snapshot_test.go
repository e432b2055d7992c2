package arena

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRestore(t *testing.T) {
	assert := assert.New(t)

	m := newManager[string](t, 100, 4)
	for _, k := range []string{"a", "b", "c", "d"} {
		reserve(t, m, k, 10)
	}
	reserve(t, m, "a", 10)
	m.Release("b")

	data, err := m.Snapshot()
	require.NoError(t, err)

	m2 := newManager[string](t, 100, 4)
	require.NoError(t, m2.Restore(data))

	assert.Equal(m.NextFree(), m2.NextFree())
	assert.Equal(m.FreeSlots(), m2.FreeSlots())
	assert.Equal(m.Len(), m2.Len())
	for _, k := range []string{"a", "c", "d"} {
		want, _ := m.Lookup(k)
		got, ok := m2.Lookup(k)
		assert.True(ok)
		assert.Equal(want, got)
	}
	assert.Equal(uint32(2), m2.Refs("a"))

	// both continue identically.
	assert.Equal(reserve(t, m, "e", 5), reserve(t, m2, "e", 5))
	assert.Nil(m2.Check())
}

func TestMarshalJSON(t *testing.T) {
	m := newManager[int](t, 10, 1)
	reserve(t, m, 7, 3)

	src, err := m.MarshalJSON()
	require.NoError(t, err)

	var snap managerJSON[int]
	require.NoError(t, sonic.Unmarshal(src, &snap))
	assert.Equal(t, uint32(10), snap.MaxElements)
	assert.Equal(t, uint32(3), snap.NextFree)
	assert.Equal(t, []int{7}, snap.K)
	assert.Equal(t, []Allocation{{0, 3, 1}}, snap.A)
	assert.Empty(t, snap.F)
}

func TestRestoreRejects(t *testing.T) {
	assert := assert.New(t)

	m := newManager[string](t, 100, 4)
	reserve(t, m, "a", 10)
	reserve(t, m, "b", 10)
	m.Release("a")
	data, err := m.Snapshot()
	require.NoError(t, err)

	// not initialized.
	fresh, err := New[string](DefaultOptions)
	require.NoError(t, err)
	assert.ErrorIs(fresh.Restore(data), ErrNotInitialized)

	// geometry mismatch.
	other := newManager[string](t, 50, 4)
	assert.ErrorIs(other.Restore(data), ErrCorrupted)

	// garbage.
	target := newManager[string](t, 100, 4)
	reserve(t, target, "keep", 1)
	assert.ErrorIs(target.Restore([]byte("not a snapshot")), ErrCorrupted)

	encode := func(snap managerJSON[string]) []byte {
		src, err := sonic.Marshal(snap)
		require.NoError(t, err)
		return s2.Encode(nil, src)
	}

	// overlapping ranges.
	bad := encode(managerJSON[string]{
		MaxElements: 100, ElementSize: 4, NextFree: 20,
		K: []string{"x", "y"},
		A: []Allocation{{0, 15, 1}, {10, 10, 1}},
	})
	assert.ErrorIs(target.Restore(bad), ErrCorrupted)

	// adjacent holes.
	bad = encode(managerJSON[string]{
		MaxElements: 100, ElementSize: 4, NextFree: 20,
		F: []Slot{{0, 10}, {10, 10}},
	})
	assert.ErrorIs(target.Restore(bad), ErrCorrupted)

	// key count mismatch.
	bad = encode(managerJSON[string]{
		MaxElements: 100, ElementSize: 4, NextFree: 10,
		K: []string{"x", "y"},
		A: []Allocation{{0, 10, 1}},
	})
	assert.ErrorIs(target.Restore(bad), ErrCorrupted)

	// the previous state survived every rejection.
	off, ok := target.GetOffset("keep")
	assert.True(ok)
	assert.Equal(uint32(0), off)
	assert.Equal(uint32(1), target.NextFree())
	assert.Nil(target.Check())
}
