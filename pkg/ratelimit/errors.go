package ratelimit

import "errors"

var (
	ErrStoreRequired    = errors.New("ratelimit.errors.store_required")
	ErrKeyRequired      = errors.New("ratelimit.errors.key_required")
	ErrInvalidConfig    = errors.New("ratelimit.errors.invalid_config")
	ErrStoreUnavailable = errors.New("ratelimit.errors.store_unavailable")
)
