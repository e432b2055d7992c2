package arena

import (
	"errors"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"github.com/zeebo/xxh3"
)

// bucket is one shard of a Sharded arena.
type bucket[K comparable] struct {
	sync.Mutex
	m *Manager[K]
}

// Sharded partitions keys across independent arenas, each with its own region and lock.
// A key is always routed to the same shard, so every Manager invariant holds per shard.
type Sharded[K comparable] struct {
	kind    keyKind
	ksize   int
	buckets []*bucket[K]
}

// NewSharded returns an un-initialized Sharded arena of options.ShardCount shards.
func NewSharded[K comparable](options Options) (*Sharded[K], error) {
	if err := checkShardOptions(options); err != nil {
		return nil, err
	}

	s := &Sharded[K]{
		buckets: make([]*bucket[K], options.ShardCount),
	}
	s.kind, s.ksize = detectKey[K]()

	logger := options.logger()
	for i := range s.buckets {
		opts := options
		opts.Logger = logger.With("shard", i)
		m, err := New[K](opts)
		if err != nil {
			return nil, err
		}
		s.buckets[i] = &bucket[K]{m: m}
	}
	return s, nil
}

// ShardOf returns the shard index key is routed to.
func (s *Sharded[K]) ShardOf(key K) int {
	h := xxh3.HashString(keyBytes(s.kind, s.ksize, &key))
	return int(h % uint64(len(s.buckets)))
}

func (s *Sharded[K]) getShard(key K) (int, *bucket[K]) {
	i := s.ShardOf(key)
	return i, s.buckets[i]
}

// Shards returns the number of shards.
func (s *Sharded[K]) Shards() int {
	return len(s.buckets)
}

// Initialize gives every shard a region of maxElements elements, in parallel.
// It is all-or-nothing: if any shard fails, the shards initialized by this call are
// finalized again. The returned error joins the initialize errors with any device error
// of that rollback.
func (s *Sharded[K]) Initialize(maxElements, elementSize uint32) error {
	done := make([]bool, len(s.buckets))

	p := pool.New().WithMaxGoroutines(runtime.GOMAXPROCS(0)).WithErrors()
	for i, b := range s.buckets {
		i, b := i, b
		p.Go(func() error {
			b.Lock()
			defer b.Unlock()
			if err := b.m.Initialize(maxElements, elementSize); err != nil {
				return err
			}
			done[i] = true
			return nil
		})
	}
	err := p.Wait()
	if err == nil {
		return nil
	}

	errs := []error{err}
	for i, b := range s.buckets {
		if done[i] {
			b.Lock()
			errs = append(errs, b.m.Finalize())
			b.Unlock()
		}
	}
	return errors.Join(errs...)
}

// Finalize finalizes every shard, in parallel.
func (s *Sharded[K]) Finalize() error {
	p := pool.New().WithMaxGoroutines(runtime.GOMAXPROCS(0)).WithErrors()
	for _, b := range s.buckets {
		b := b
		p.Go(func() error {
			b.Lock()
			defer b.Unlock()
			return b.m.Finalize()
		})
	}
	return p.Wait()
}

// Close finalizes every shard.
func (s *Sharded[K]) Close() error {
	return s.Finalize()
}

// Reserve reserves length elements for key in its shard.
func (s *Sharded[K]) Reserve(key K, length uint32) (Location, error) {
	i, b := s.getShard(key)
	b.Lock()
	offset, err := b.m.Reserve(key, length)
	b.Unlock()
	if err != nil {
		return 0, err
	}
	return newLocation(i, offset), nil
}

// Release drops one reference of key.
func (s *Sharded[K]) Release(key K) {
	_, b := s.getShard(key)
	b.Lock()
	b.m.Release(key)
	b.Unlock()
}

// GetOffset returns the location of the range owned by key.
func (s *Sharded[K]) GetOffset(key K) (Location, bool) {
	i, b := s.getShard(key)
	b.Lock()
	offset, ok := b.m.GetOffset(key)
	b.Unlock()
	if !ok {
		return 0, false
	}
	return newLocation(i, offset), true
}

// Bytes returns the region bytes of the range owned by key.
func (s *Sharded[K]) Bytes(key K) ([]byte, bool) {
	_, b := s.getShard(key)
	b.Lock()
	defer b.Unlock()
	return b.m.Bytes(key)
}

// Len returns the number of live allocations over all shards.
func (s *Sharded[K]) Len() (n int) {
	for _, b := range s.buckets {
		b.Lock()
		n += b.m.Len()
		b.Unlock()
	}
	return
}

// Stats returns the stats summed over all shards.
func (s *Sharded[K]) Stats() (stat Stats) {
	for _, b := range s.buckets {
		b.Lock()
		stat.add(b.m.Stats())
		b.Unlock()
	}
	return
}

// Check checks every shard.
func (s *Sharded[K]) Check() error {
	var errs []error
	for _, b := range s.buckets {
		b.Lock()
		errs = append(errs, b.m.Check())
		b.Unlock()
	}
	return errors.Join(errs...)
}
