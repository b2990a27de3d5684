package ratelimit

import (
	"context"
	"time"
)

// Bucket is a token bucket limiter over a Store. It satisfies the
// notification engine's RateLimiter interface.
type Bucket struct {
	store Store
	cfg   Config
	clock func() time.Time
}

// BucketOption configures a Bucket.
type BucketOption func(*Bucket)

// WithClock overrides the time source, used in tests.
func WithClock(clock func() time.Time) BucketOption {
	return func(b *Bucket) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// NewBucket creates a limiter over the given store.
func NewBucket(store Store, cfg Config, opts ...BucketOption) (*Bucket, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Bucket{store: store, cfg: cfg, clock: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Allow consumes one token for key. When denied, the returned duration is
// how long to wait before the next token becomes available.
func (b *Bucket) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if key == "" {
		return false, 0, ErrKeyRequired
	}
	return b.store.Take(ctx, key, b.cfg, b.clock())
}
