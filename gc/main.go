package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/tidwall/hashmap"

	arena "github.com/xgzlucario/devarena"
	"github.com/xgzlucario/devarena/device"
)

var previousPause time.Duration

func gcPause() time.Duration {
	runtime.GC()
	var stats debug.GCStats
	debug.ReadGCStats(&stats)
	pause := stats.PauseTotal - previousPause
	previousPause = stats.PauseTotal
	return pause
}

func main() {
	c := ""
	entries := 0
	repeat := 0
	valueSize := 0
	flag.StringVar(&c, "cache", "arena", "store to bench: arena, bigcache, stdmap, hashmap.")
	flag.IntVar(&entries, "entries", 2000*10000, "number of entries to test")
	flag.IntVar(&repeat, "repeat", 50, "number of repetitions")
	flag.IntVar(&valueSize, "value-size", 100, "size of single entry value in bytes")
	flag.Parse()

	debug.SetGCPercent(10)
	fmt.Println("Store:             ", c)
	fmt.Println("Number of entries: ", entries)
	fmt.Println("Number of repeats: ", repeat)
	fmt.Println("Value size:        ", valueSize)

	var benchFunc func(entries, valueSize int)

	switch c {
	case "arena":
		benchFunc = arenaStore
	case "bigcache":
		benchFunc = bigCache
	case "stdmap":
		benchFunc = stdMap
	case "hashmap":
		benchFunc = hashMap
	default:
		fmt.Printf("unknown store: %s", c)
		os.Exit(1)
	}

	benchFunc(entries, valueSize)
	fmt.Println("GC pause for startup: ", gcPause())
	for i := 0; i < repeat; i++ {
		benchFunc(entries, valueSize)
	}

	fmt.Printf("GC pause for %s: %s\n", c, gcPause())
}

func stdMap(entries, valueSize int) {
	m := make(map[string][]byte)
	for i := 0; i < entries; i++ {
		key, val := generateKeyValue(i, valueSize)
		m[key] = val
	}
}

func hashMap(entries, valueSize int) {
	var m hashmap.Map[string, []byte]
	for i := 0; i < entries; i++ {
		key, val := generateKeyValue(i, valueSize)
		m.Set(key, val)
	}
}

func bigCache(entries, valueSize int) {
	config := bigcache.Config{
		Shards:             256,
		LifeWindow:         100 * time.Minute,
		MaxEntriesInWindow: entries,
		MaxEntrySize:       200,
		Verbose:            true,
	}

	bigcache, _ := bigcache.New(context.Background(), config)
	for i := 0; i < entries; i++ {
		key, val := generateKeyValue(i, valueSize)
		bigcache.Set(key, val)
	}
}

// arenaStore keeps the values in an mmap region outside the Go heap.
func arenaStore(entries, valueSize int) {
	opts := arena.DefaultOptions
	opts.Device = device.Mmap{}
	opts.ShardCount = 256

	s, err := arena.NewSharded[string](opts)
	if err != nil {
		panic(err)
	}
	perShard := uint32(max(entries/opts.ShardCount*2, 1024))
	if err := s.Initialize(perShard, uint32(valueSize)); err != nil {
		panic(err)
	}
	defer s.Finalize()

	for i := 0; i < entries; i++ {
		key, val := generateKeyValue(i, valueSize)
		if _, err := s.Reserve(key, 1); err != nil {
			panic(err)
		}
		b, _ := s.Bytes(key)
		copy(b, val)
	}
}

func generateKeyValue(index int, valSize int) (string, []byte) {
	key := fmt.Sprintf("key-%010d", index)
	fixedNumber := []byte(fmt.Sprintf("%010d", index))
	val := append(make([]byte, valSize-10), fixedNumber...)

	return key, val
}
