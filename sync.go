package arena

import "sync"

// SyncManager serialises access to one Manager with a mutex.
type SyncManager[K comparable] struct {
	mu sync.Mutex
	m  *Manager[K]
}

// NewSync returns an un-initialized SyncManager.
func NewSync[K comparable](options Options) (*SyncManager[K], error) {
	m, err := New[K](options)
	if err != nil {
		return nil, err
	}
	return &SyncManager[K]{m: m}, nil
}

func (s *SyncManager[K]) Initialize(maxElements, elementSize uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Initialize(maxElements, elementSize)
}

func (s *SyncManager[K]) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Finalize()
}

func (s *SyncManager[K]) Close() error {
	return s.Finalize()
}

func (s *SyncManager[K]) Reserve(key K, length uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Reserve(key, length)
}

func (s *SyncManager[K]) Release(key K) {
	s.mu.Lock()
	s.m.Release(key)
	s.mu.Unlock()
}

func (s *SyncManager[K]) GetOffset(key K) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.GetOffset(key)
}

func (s *SyncManager[K]) Bytes(key K) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Bytes(key)
}

func (s *SyncManager[K]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Stats()
}

func (s *SyncManager[K]) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Check()
}

// Do runs f with exclusive access to the underlying Manager, for sequences of calls that
// must not interleave with other goroutines.
func (s *SyncManager[K]) Do(f func(m *Manager[K])) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.m)
}
