package ratelimit

import "time"

// Config describes a token bucket: Capacity tokens at most, refilled at
// RefillRate tokens per RefillInterval.
type Config struct {
	Capacity       int           `env:"NOTIFY_RATE_CAPACITY" envDefault:"10"`
	RefillRate     int           `env:"NOTIFY_RATE_REFILL_RATE" envDefault:"1"`
	RefillInterval time.Duration `env:"NOTIFY_RATE_REFILL_INTERVAL" envDefault:"1s"`
}

// DefaultConfig allows bursts of 10 with a sustained rate of one send per
// second, matching the default throughput tier of most SMS providers.
func DefaultConfig() Config {
	return Config{
		Capacity:       10,
		RefillRate:     1,
		RefillInterval: time.Second,
	}
}

// Validate reports whether the configuration describes a usable bucket.
func (c Config) Validate() error {
	if c.Capacity <= 0 || c.RefillRate <= 0 || c.RefillInterval <= 0 {
		return ErrInvalidConfig
	}
	return nil
}
