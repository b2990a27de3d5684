package ratelimit

import (
	"context"
	"time"
)

// Store performs the refill-and-take step for one key. Implementations
// must make the whole step atomic: two concurrent Take calls for the same
// key may never both spend the last token.
type Store interface {
	// Take refills the bucket for key according to cfg, then attempts to
	// consume one token. When the bucket is empty it returns allowed=false
	// and the wait until the next token becomes available.
	Take(ctx context.Context, key string, cfg Config, now time.Time) (allowed bool, retryAfter time.Duration, err error)
}
