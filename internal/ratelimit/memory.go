package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryRateLimiter keeps one token bucket per key in process memory. Each
// bucket holds limit tokens and refills at limit per window. Buckets idle for
// longer than a window are swept lazily.
type MemoryRateLimiter struct {
	mu        sync.Mutex
	limit     int
	every     rate.Limit
	window    time.Duration
	buckets   map[string]*bucket
	now       func() time.Time
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryRateLimiter returns a limiter admitting limit requests per window
// per key. A non-positive limit admits nothing; a non-positive window with a
// positive limit admits everything.
func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	every := rate.Limit(0)
	switch {
	case limit <= 0:
		limit = 0
	case window <= 0:
		every = rate.Inf
	default:
		every = rate.Every(window / time.Duration(limit))
	}
	return &MemoryRateLimiter{
		limit:   limit,
		every:   every,
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (m *MemoryRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(m.every, m.limit)}
		m.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

func (m *MemoryRateLimiter) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.window {
		return
	}
	for k, b := range m.buckets {
		if now.Sub(b.lastSeen) > m.window {
			delete(m.buckets, k)
		}
	}
	m.lastSweep = now
}

func (m *MemoryRateLimiter) Close() error {
	m.mu.Lock()
	m.buckets = make(map[string]*bucket)
	m.mu.Unlock()
	return nil
}
