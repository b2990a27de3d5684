package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the Redis connection settings for the shared bucket
// store.
type RedisConfig struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
}

// Connect establishes a Redis connection, retrying per the configuration.
func Connect(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	for range max(cfg.RetryAttempts, 1) {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrStoreUnavailable, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrStoreUnavailable
}

// RedisStore keeps token buckets in Redis so multiple workers can share a
// single provider quota. The refill-and-take step runs as a Lua script,
// which Redis executes atomically.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a bucket store backed by the given client.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, ErrStoreRequired
	}
	return &RedisStore{client: client, prefix: "notify:rate:"}, nil
}

// takeScript refills the bucket from the elapsed time and takes one token
// if available. State is a hash {tokens, ts} where ts is the last refill
// in microseconds. Returns {1, 0} when allowed, {0, wait_us} when not.
var takeScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local interval_us = tonumber(ARGV[3])
local now_us = tonumber(ARGV[4])
local ttl_ms = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])

if tokens == nil then
  tokens = capacity
  ts = now_us
end

local elapsed = now_us - ts
if elapsed > 0 then
  tokens = math.min(capacity, tokens + elapsed / interval_us * rate)
  ts = now_us
end

local allowed = 0
local wait_us = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  wait_us = math.ceil((1 - tokens) * interval_us / rate)
end

redis.call('HSET', key, 'tokens', tokens, 'ts', ts)
redis.call('PEXPIRE', key, ttl_ms)

return {allowed, wait_us}
`)

func (s *RedisStore) Take(ctx context.Context, key string, cfg Config, now time.Time) (bool, time.Duration, error) {
	// Keys idle long enough to refill completely can simply expire.
	ttl := time.Duration(cfg.Capacity) * cfg.RefillInterval / time.Duration(cfg.RefillRate) * 2

	res, err := takeScript.Run(ctx, s.client,
		[]string{s.prefix + key},
		cfg.Capacity,
		cfg.RefillRate,
		cfg.RefillInterval.Microseconds(),
		now.UnixMicro(),
		ttl.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return false, 0, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return false, 0, ErrStoreUnavailable
	}

	return res[0] == 1, time.Duration(res[1]) * time.Microsecond, nil
}
