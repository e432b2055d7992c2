package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	arena "github.com/xgzlucario/devarena"
	"github.com/xgzlucario/devarena/device"
)

// cell is a mesh cell owning a block of vertex data in the arena.
type cell struct {
	ID    uint32
	Level uint8
}

const vertexSize = 12 // 3 x float32

func main() {
	cells := 0
	duration := time.Duration(0)
	flag.IntVar(&cells, "cells", 50*10000, "number of mesh cells")
	flag.DurationVar(&duration, "duration", time.Minute, "run time")
	flag.Parse()

	go http.ListenAndServe("localhost:6060", nil)

	lim := device.Limit(device.Mmap{}, 1<<30)
	opts := arena.DefaultOptions
	opts.Device = lim
	opts.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

	m, err := arena.NewSync[cell](opts)
	if err != nil {
		panic(err)
	}
	if err := m.Initialize(uint32(cells)*16, vertexSize); err != nil {
		panic(err)
	}
	defer m.Close()

	a := time.Now()
	var refined, coarsened atomic.Int64
	var failed int

	// Stat
	go func() {
		for range time.Tick(time.Second) {
			stat := m.Stats()
			fmt.Printf("[Arena] %.0fs\t cells: %dk\t used: %.1f%%\t frag: %.1f%%\t holes: %d\t device: %dmb\t refined: %dk\t coarsened: %dk\n",
				time.Since(a).Seconds(), stat.Allocations/1e3, stat.Utilization()*100,
				stat.Fragmentation()*100, stat.FreeSlots, lim.Used()>>20, refined.Load()/1e3, coarsened.Load()/1e3)
		}
	}()

	faker := gofakeit.New(0)
	for time.Since(a) < duration {
		c := cell{ID: uint32(faker.IntRange(0, cells-1)), Level: uint8(faker.IntRange(0, 3))}

		if _, ok := m.GetOffset(c); ok {
			m.Release(c)
			coarsened.Add(1)
			continue
		}

		// finer cells carry more vertices.
		n := uint32(4) << c.Level
		if _, err := m.Reserve(c, n); err != nil {
			if errors.Is(err, arena.ErrOutOfMemory) {
				failed++
				continue
			}
			panic(err)
		}
		buf, _ := m.Bytes(c)
		for i := range buf {
			buf[i] = byte(c.ID)
		}
		refined.Add(1)
	}

	if err := m.Check(); err != nil {
		panic(err)
	}
	snap := []byte(nil)
	m.Do(func(m *arena.Manager[cell]) {
		snap, err = m.Snapshot()
	})
	if err != nil {
		panic(err)
	}
	fmt.Println("failed:", failed)
	fmt.Println("snapshot:", len(snap)/1024, "kb")
}
