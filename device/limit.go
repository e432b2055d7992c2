package device

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter caps the bytes outstanding from an underlying Allocator.
// It is safe for concurrent use, so several arenas can share one budget.
type Limiter struct {
	next Allocator
	max  int64
	sem  *semaphore.Weighted // nil if unlimited
	used atomic.Int64
}

// Limit wraps next with a budget of maxBytes. If maxBytes <= 0, usage is only tracked.
func Limit(next Allocator, maxBytes int64) *Limiter {
	l := &Limiter{next: next, max: maxBytes}
	if maxBytes > 0 {
		l.sem = semaphore.NewWeighted(maxBytes)
	}
	return l
}

// Allocate fails with ErrBudgetExceeded instead of blocking when the budget is used up.
func (l *Limiter) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	n := int64(size)
	if l.sem != nil && !l.sem.TryAcquire(n) {
		return nil, ErrBudgetExceeded
	}
	buf, err := l.next.Allocate(size)
	if err != nil {
		if l.sem != nil {
			l.sem.Release(n)
		}
		return nil, err
	}
	l.used.Add(n)
	return buf, nil
}

func (l *Limiter) Free(buf []byte) error {
	n := int64(len(buf))
	err := l.next.Free(buf)
	if n > 0 {
		if l.sem != nil {
			l.sem.Release(n)
		}
		l.used.Add(-n)
	}
	return err
}

// Used returns the bytes currently allocated through the limiter.
func (l *Limiter) Used() int64 {
	return l.used.Load()
}

// Max returns the configured budget (0 if unlimited).
func (l *Limiter) Max() int64 {
	return l.max
}
