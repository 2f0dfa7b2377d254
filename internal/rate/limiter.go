package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// Limiter counts failed login attempts per throttle key using Redis
// counters. Increments are atomic (INCR), so concurrent failures for the
// same key never lose updates.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// TooManyAttempts reports whether the key has exhausted its attempt budget
// in the current window. Missing keys count as zero.
func (l *Limiter) TooManyAttempts(ctx context.Context, key string) (bool, error) {
	count, err := l.redis.Get(ctx, loginKey(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return count >= int64(l.config.MaxAttempts), nil
}

// Hit records one failed attempt for the key and returns the new count.
func (l *Limiter) Hit(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, loginKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, loginKey(key), l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

// Clear drops the counter for the key. Called after a successful
// authentication.
func (l *Limiter) Clear(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, loginKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// AvailableIn returns how long until the key's window expires. Keys with no
// counter or no TTL report zero.
func (l *Limiter) AvailableIn(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := l.redis.TTL(ctx, loginKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ttl < 0 {
		return 0, nil
	}

	return ttl, nil
}

func loginKey(key string) string {
	return "lg:" + key
}
