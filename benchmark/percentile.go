package main

import (
	"fmt"
	"slices"
	"time"
)

// latencies records operation latencies for the churn report. Once window samples are
// held, each new one replaces the oldest, so the report reflects the recent workload.
type latencies struct {
	window  int
	samples []time.Duration
	next    int
	sorted  []time.Duration // cached sorted copy, nil when stale
}

func newLatencies(window int) *latencies {
	return &latencies{window: window}
}

func (l *latencies) record(d time.Duration) {
	l.sorted = nil
	if len(l.samples) < l.window {
		l.samples = append(l.samples, d)
		return
	}
	l.samples[l.next] = d
	l.next = (l.next + 1) % l.window
}

// quantile returns the sample below which a q fraction of the samples fall.
func (l *latencies) quantile(q float64) time.Duration {
	if len(l.samples) == 0 {
		return 0
	}
	if l.sorted == nil {
		l.sorted = slices.Clone(l.samples)
		slices.Sort(l.sorted)
	}
	i := int(q * float64(len(l.sorted)))
	return l.sorted[min(i, len(l.sorted)-1)]
}

func (l *latencies) report() {
	for _, q := range []float64{0.5, 0.9, 0.99, 0.999} {
		fmt.Printf("p%g: %v\n", q*100, l.quantile(q))
	}
	fmt.Printf("max: %v\n", l.quantile(1))
}
