// Package ratelimit provides token bucket rate limiting for outbound
// notification traffic.
//
// A Bucket tracks tokens per key (typically a provider name such as
// "twilio" or "postmark") and refills them continuously at a configured
// rate up to a capacity. The engine asks the bucket before each provider
// call; a denied check carries the wait until the next token so the
// caller can pause instead of hammering the API.
//
// Two storage backends are available: MemoryStore for single-process
// deployments and tests, and RedisStore when several workers share one
// provider quota. The Redis backend performs the refill-and-take step in
// a Lua script so concurrent workers never double-spend a token.
package ratelimit
