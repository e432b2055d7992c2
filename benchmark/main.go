package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"time"

	"golang.org/x/exp/rand"

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

// allocator is the part of an arena driven by the churn workload.
type allocator interface {
	Reserve(key string, length uint32) (uint32, error)
	Release(key string)
}

// stdAllocator is a bump allocator over a map that never reuses space.
type stdAllocator struct {
	m    map[string]uint32
	next uint32
	max  uint32
}

func (s *stdAllocator) Reserve(key string, length uint32) (uint32, error) {
	if off, ok := s.m[key]; ok {
		return off, nil
	}
	if uint64(s.next)+uint64(length) > uint64(s.max) {
		return 0, arena.ErrOutOfMemory
	}
	off := s.next
	s.m[key] = off
	s.next += length
	return off, nil
}

func (s *stdAllocator) Release(key string) {
	delete(s.m, key)
}

func main() {
	impl := ""
	dev := ""
	ops := 0
	keys := 0
	maxLen := 0
	capacity := 0
	flag.StringVar(&impl, "impl", "arena", "allocator to bench: arena, stdmap.")
	flag.StringVar(&dev, "device", "heap", "device backing the arena: heap, mmap.")
	flag.IntVar(&ops, "ops", 1000*10000, "number of reserve or release operations")
	flag.IntVar(&keys, "keys", 100*10000, "number of distinct keys")
	flag.IntVar(&maxLen, "maxlen", 64, "max elements per reservation")
	flag.IntVar(&capacity, "capacity", 64*100*10000, "arena capacity in elements")
	flag.Parse()

	fmt.Println("impl:", impl)
	fmt.Println("device:", dev)
	fmt.Println("ops:", ops)

	opts := arena.DefaultOptions
	switch dev {
	case "heap":
	case "mmap":
		opts.Device = device.Mmap{}
	default:
		fmt.Printf("unknown device: %s\n", dev)
		os.Exit(1)
	}

	var a allocator
	var m *arena.Manager[string]
	switch impl {
	case "arena":
		var err error
		m, err = arena.New[string](opts)
		if err != nil {
			panic(err)
		}
		if err := m.Initialize(uint32(capacity), 8); err != nil {
			panic(err)
		}
		defer m.Finalize()
		a = m
	case "stdmap":
		a = &stdAllocator{m: map[string]uint32{}, max: uint32(capacity)}
	default:
		fmt.Printf("unknown impl: %s\n", impl)
		os.Exit(1)
	}

	rd := rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	live := make([]bool, keys)
	lat := newLatencies(100 * 10000)
	var failed int

	start := time.Now()
	for i := 0; i < ops; i++ {
		n := rd.Intn(keys)
		k := strconv.Itoa(n)

		t := time.Now()
		if live[n] {
			a.Release(k)
			live[n] = false
		} else {
			if _, err := a.Reserve(k, uint32(rd.Intn(maxLen)+1)); err != nil {
				failed++
			} else {
				live[n] = true
			}
		}
		lat.record(time.Since(t))
	}
	cost := time.Since(start)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fmt.Println("cost:", cost)
	fmt.Println("failed:", failed)
	lat.report()
	if m != nil {
		stat := m.Stats()
		fmt.Printf("utilization: %.2f%%\n", stat.Utilization()*100)
		fmt.Printf("fragmentation: %.2f%%\n", stat.Fragmentation()*100)
		fmt.Println("free slots:", stat.FreeSlots)
		fmt.Println("next free:", stat.NextFree)
		if err := m.Check(); err != nil {
			panic(err)
		}
	}
	fmt.Println("alloc:", mem.Alloc/1024/1024, "mb")
	fmt.Println("heap object:", mem.HeapObjects/1024, "k")
	fmt.Println("pause:", gcPause())
}
