// Package retry computes backoff schedules for failed delivery attempts.
//
// The policy is a pure function: exponential growth from a base delay,
// clamped to a maximum, then spread by a uniform jitter band. Jitter keeps
// simultaneous failures from re-converging into a synchronized retry storm
// against the provider.
package retry

import (
	"math/rand/v2"
	"time"
)

// Config holds the retry policy knobs.
type Config struct {
	MaxRetries   int           `env:"NOTIFY_RETRY_MAX_RETRIES" envDefault:"2"`  // MaxRetries caps RetryCount on a log entry.
	BaseDelay    time.Duration `env:"NOTIFY_RETRY_BASE_DELAY" envDefault:"30s"` // BaseDelay is the pre-jitter delay for the first retry.
	MaxDelay     time.Duration `env:"NOTIFY_RETRY_MAX_DELAY" envDefault:"5m"`   // MaxDelay clamps exponential growth.
	JitterFactor float64       `env:"NOTIFY_RETRY_JITTER" envDefault:"0.3"`     // JitterFactor spreads delays across [1-j, 1+j].
}

// DefaultConfig returns the production defaults: two retries, 30s base,
// 5m cap, 30% jitter.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   2,
		BaseDelay:    30 * time.Second,
		MaxDelay:     5 * time.Minute,
		JitterFactor: 0.3,
	}
}

// Delay returns the jittered backoff for the given retry count:
// clamp(base * 2^retryCount, max) * uniform(1-jitter, 1+jitter).
func Delay(retryCount int, cfg Config) time.Duration {
	d := cfg.BaseDelay
	for range retryCount {
		d *= 2
		if d >= cfg.MaxDelay {
			break
		}
	}
	if d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}

	if cfg.JitterFactor > 0 {
		factor := 1 - cfg.JitterFactor + rand.Float64()*2*cfg.JitterFactor
		d = time.Duration(float64(d) * factor)
	}

	return d
}

// NextAttemptAt returns the timestamp a failed entry becomes eligible for
// its next retry.
func NextAttemptAt(now time.Time, retryCount int, cfg Config) time.Time {
	return now.Add(Delay(retryCount, cfg))
}

// Exceeded reports whether a retry count has reached the configured limit.
func Exceeded(retryCount int, cfg Config) bool {
	return retryCount >= cfg.MaxRetries
}
