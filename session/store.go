package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a handle refers to an expired or
// deleted session.
var ErrSessionNotFound = errors.New("session not found")

// ErrRedisUnavailable wraps Redis round-trip failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	fieldUserID   = "uid"
	fieldCreated  = "created"
	fieldRemember = "remember"
	flagPrefix    = "f:"
)

// consumeFlagScript pops a flag atomically so one-shot flags cannot be read
// twice by racing requests.
const consumeFlagScript = `
local v = redis.call("HGET", KEYS[1], ARGV[1])
if v then
  redis.call("HDEL", KEYS[1], ARGV[1])
end
return v
`

var consumeFlagLua = redis.NewScript(consumeFlagScript)

// Config tunes the store.
type Config struct {
	Prefix           string
	Lifetime         time.Duration
	RememberLifetime time.Duration
	TokenSecret      []byte
}

// Store keeps session state in Redis and hands out signed token handles.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	config Config
	tokens *tokenCodec
}

// NewStore validates the config and returns a store.
func NewStore(redisClient redis.UniversalClient, cfg Config) (*Store, error) {
	if redisClient == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.Lifetime <= 0 {
		return nil, errors.New("session lifetime must be positive")
	}
	if cfg.RememberLifetime < cfg.Lifetime {
		cfg.RememberLifetime = cfg.Lifetime
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ag"
	}

	codec, err := newTokenCodec(cfg.TokenSecret)
	if err != nil {
		return nil, err
	}

	return &Store{
		redis:  redisClient,
		prefix: cfg.Prefix,
		config: cfg,
		tokens: codec,
	}, nil
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *Store) lifetime(remember bool) time.Duration {
	if remember {
		return s.config.RememberLifetime
	}
	return s.config.Lifetime
}

// Establish creates a session for the user and returns its signed handle.
func (s *Store) Establish(ctx context.Context, userID string, remember bool) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}

	sessionID := uuid.NewString()
	ttl := s.lifetime(remember)
	key := s.key(sessionID)

	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key,
		fieldUserID, userID,
		fieldCreated, strconv.FormatInt(time.Now().Unix(), 10),
		fieldRemember, strconv.FormatBool(remember),
	)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return s.tokens.Encode(sessionID, ttl)
}

// SetFlag stores a named flag on an existing session.
func (s *Store) SetFlag(ctx context.Context, handle, name, value string) error {
	sessionID, err := s.tokens.Decode(handle)
	if err != nil {
		return err
	}

	key := s.key(sessionID)
	exists, err := s.redis.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if exists == 0 {
		return ErrSessionNotFound
	}

	if err := s.redis.HSet(ctx, key, flagPrefix+name, value).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// ConsumeFlag reads and removes a flag in one step. The second return is
// false when the flag was not set.
func (s *Store) ConsumeFlag(ctx context.Context, handle, name string) (string, bool, error) {
	sessionID, err := s.tokens.Decode(handle)
	if err != nil {
		return "", false, err
	}

	res, err := consumeFlagLua.Run(ctx, s.redis, []string{s.key(sessionID)}, flagPrefix+name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	value, ok := res.(string)
	if !ok {
		return "", false, nil
	}

	return value, true, nil
}

// Lookup resolves a handle to its session state.
func (s *Store) Lookup(ctx context.Context, handle string) (*Session, error) {
	sessionID, err := s.tokens.Decode(handle)
	if err != nil {
		return nil, err
	}

	fields, err := s.redis.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}

	sess := &Session{
		SessionID: sessionID,
		UserID:    fields[fieldUserID],
		Flags:     map[string]string{},
	}
	sess.Remember, _ = strconv.ParseBool(fields[fieldRemember])
	sess.CreatedAt, _ = strconv.ParseInt(fields[fieldCreated], 10, 64)

	for name, value := range fields {
		if flag, found := strings.CutPrefix(name, flagPrefix); found {
			sess.Flags[flag] = value
		}
	}

	return sess, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, handle string) error {
	sessionID, err := s.tokens.Decode(handle)
	if err != nil {
		return err
	}

	if err := s.redis.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}
