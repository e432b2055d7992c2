package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"slices"
	"strconv"

	"github.com/brianvoe/gofakeit/v6"

	arena "github.com/xgzlucario/devarena"
)

func main() {
	shards := 0
	keys := 0
	rounds := 0
	flag.IntVar(&shards, "shards", 64, "number of shards")
	flag.IntVar(&keys, "keys", 100*10000, "number of keys to route")
	flag.IntVar(&rounds, "rounds", 1000*10000, "number of reserve rounds")
	flag.Parse()

	opt := arena.DefaultOptions
	opt.ShardCount = shards
	s, err := arena.NewSharded[string](opt)
	if err != nil {
		panic(err)
	}

	// distribution
	faker := gofakeit.New(0)
	counts := make([]int, shards)
	for i := 0; i < keys; i++ {
		counts[s.ShardOf(faker.UUID())]++
	}
	lo, hi := slices.Min(counts), slices.Max(counts)
	avg := float64(keys) / float64(shards)
	fmt.Printf("keys per shard: min %d, max %d, avg %.0f, skew %.2f%%\n",
		lo, hi, avg, (float64(hi)-avg)/avg*100)

	// every live key must read back its own payload.
	if err := s.Initialize(1<<20, 8); err != nil {
		panic(err)
	}
	defer s.Finalize()

	for i := 0; i < rounds; i++ {
		if i%(100*10000) == 0 {
			stat := s.Stats()
			fmt.Println("progress:", i/10000, "w", "live:", stat.Allocations,
				"fragmentation:", fmt.Sprintf("%.2f%%", stat.Fragmentation()*100))
			if err := s.Check(); err != nil {
				panic(err)
			}
		}
		k := strconv.FormatUint(faker.Uint64()%uint64(keys), 36)
		n := uint32(faker.IntRange(1, 8))

		if _, ok := s.GetOffset(k); ok {
			b, _ := s.Bytes(k)
			if !bytes.HasPrefix(b, []byte(k)) {
				panic(fmt.Sprintf("payload of %s overwritten: %q", k, b))
			}
			s.Release(k)
			continue
		}

		if _, err := s.Reserve(k, n); err != nil {
			if errors.Is(err, arena.ErrOutOfMemory) {
				continue
			}
			panic(err)
		}
		b, _ := s.Bytes(k)
		copy(b, k)
	}
}
