package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps token buckets in process memory. Suitable for
// single-instance deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*memBucket
}

type memBucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewMemoryStore creates an empty in-memory bucket store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*memBucket)}
}

func (s *MemoryStore) Take(_ context.Context, key string, cfg Config, now time.Time) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok {
		b = &memBucket{tokens: float64(cfg.Capacity), lastRefill: now}
		s.buckets[key] = b
	}

	refill(b, cfg, now)

	if b.tokens >= 1 {
		b.tokens--
		return true, 0, nil
	}
	return false, waitForToken(b.tokens, cfg), nil
}

// Reset drops the bucket for key so the next Take starts full.
func (s *MemoryStore) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
}

func refill(b *memBucket, cfg Config, now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}
	earned := elapsed.Seconds() / cfg.RefillInterval.Seconds() * float64(cfg.RefillRate)
	b.tokens = min(float64(cfg.Capacity), b.tokens+earned)
	b.lastRefill = now
}

// waitForToken returns how long until a bucket holding tokens (< 1)
// accrues a full token at the configured rate.
func waitForToken(tokens float64, cfg Config) time.Duration {
	missing := 1 - tokens
	secondsPerToken := cfg.RefillInterval.Seconds() / float64(cfg.RefillRate)
	return time.Duration(missing * secondsPerToken * float64(time.Second))
}
