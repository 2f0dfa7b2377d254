package rate

import "errors"

// ErrRedisUnavailable wraps any counter-store round-trip failure.
var ErrRedisUnavailable = errors.New("redis unavailable")
