package arena

import (
	"math"
	"math/rand"
	"testing"
)

func TestLocation(t *testing.T) {
	t.Run("location", func(t *testing.T) {
		for i := 0; i < 1e6; i++ {
			shard, off := int(rand.Uint32()>>1), rand.Uint32()
			loc := newLocation(shard, off)

			if loc.Shard() != shard {
				t.Fatalf("%v != %v", loc.Shard(), shard)
			}
			if loc.Offset() != off {
				t.Fatalf("%v != %v", loc.Offset(), off)
			}
		}
	})

	t.Run("bounds", func(t *testing.T) {
		if math.MaxInt == math.MaxInt32 {
			t.Skip("int cannot hold uint32")
		}
		maxShard := uint64(math.MaxUint32)
		loc := newLocation(int(maxShard), math.MaxUint32)
		if uint64(loc.Shard()) != maxShard || loc.Offset() != math.MaxUint32 {
			t.Fatalf("bad location %x", uint64(loc))
		}
		if newLocation(0, 0) != 0 {
			t.Fatal("zero location")
		}
	})

	t.Run("panic-shard", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("should panic")
			}
		}()
		newLocation(-1, 0)
	})

	t.Run("panic-shard-overflow", func(t *testing.T) {
		if math.MaxInt == math.MaxInt32 {
			t.Skip("int cannot exceed uint32")
		}
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("should panic")
			}
		}()
		big := uint64(math.MaxUint32) + 1
		newLocation(int(big), 0)
	})
}
