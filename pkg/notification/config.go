package notification

import "time"

// Config holds the orchestration pacing knobs. Batch chunking plus the
// inter-chunk pauses keep burst load under external provider rate limits.
type Config struct {
	BatchSize       int           `env:"NOTIFY_BATCH_SIZE" envDefault:"10"`            // BatchSize is the SendBatch chunk size.
	BatchPause      time.Duration `env:"NOTIFY_BATCH_PAUSE" envDefault:"100ms"`        // BatchPause is the pause between SendBatch chunks.
	RetryBatchSize  int           `env:"NOTIFY_RETRY_BATCH_SIZE" envDefault:"100"`     // RetryBatchSize is the ProcessRetries claim size.
	RetryBatchPause time.Duration `env:"NOTIFY_RETRY_BATCH_PAUSE" envDefault:"1s"`     // RetryBatchPause is the pause between retry batches.
	ProviderTimeout time.Duration `env:"NOTIFY_PROVIDER_TIMEOUT" envDefault:"30s"`     // ProviderTimeout bounds a single provider call.
	LimiterWait     time.Duration `env:"NOTIFY_LIMITER_MAX_WAIT" envDefault:"5s"`      // LimiterWait caps how long a send waits on the rate limiter.
}

// DefaultConfig returns the production pacing defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:       10,
		BatchPause:      100 * time.Millisecond,
		RetryBatchSize:  100,
		RetryBatchPause: time.Second,
		ProviderTimeout: 30 * time.Second,
		LimiterWait:     5 * time.Second,
	}
}
