package authgate

import (
	"context"
	"errors"

	"github.com/opsdesk/authgate/internal/rate"
	"github.com/opsdesk/authgate/password"
	"github.com/opsdesk/authgate/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Gate]. Construction is allocation-only; no I/O
// happens until the first Gate call.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	identity IdentityStore
	sessions SessionTransport

	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSSOCode sets the expected shared-secret code.
func (b *Builder) WithSSOCode(code string) *Builder {
	b.config.SSO.Code = code
	return b
}

// WithRedis sets the client backing the rate limiter and, unless a custom
// transport is injected, the bundled session store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithIdentityStore injects the persistent user collaborator.
func (b *Builder) WithIdentityStore(store IdentityStore) *Builder {
	b.identity = store
	return b
}

// WithSessionTransport injects a custom session collaborator. When unset,
// Build wires the Redis session store from Config.Session.
func (b *Builder) WithSessionTransport(transport SessionTransport) *Builder {
	b.sessions = transport
	return b
}

// WithAuditSink injects the sink receiving gate events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles counter metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the collaborators, and returns
// an immutable Gate. A Builder can be used once.
func (b *Builder) Build() (*Gate, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	if b.identity == nil {
		return nil, errors.New("identity store is required")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required for the login rate limiter")
	}

	sessions := b.sessions
	if sessions == nil {
		store, err := session.NewStore(b.redis, session.Config{
			Prefix:           cfg.Session.RedisPrefix,
			Lifetime:         cfg.Session.Lifetime,
			RememberLifetime: cfg.Session.RememberLifetime,
			TokenSecret:      cfg.Session.TokenSecret,
		})
		if err != nil {
			return nil, err
		}
		sessions = redisSessionTransport{store: store}
	}

	hasher, err := password.New(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	gate := &Gate{
		config:   cfg,
		sso:      NewSSOGate(cfg.SSO.Code),
		limiter: rate.New(b.redis, rate.Config{
			MaxAttempts: cfg.Security.MaxLoginAttempts,
			Window:      cfg.Security.LoginCooldown,
		}),
		identity: b.identity,
		sessions: sessions,
		hasher:   hasher,
		policy: password.Policy{
			MinLength:      cfg.Password.MinLength,
			RequireLetters: cfg.Password.RequireLetters,
			RequireNumbers: cfg.Password.RequireNumbers,
		},
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	b.built = true

	return gate, nil
}

// redisSessionTransport adapts the session store to the [SessionTransport]
// interface.
type redisSessionTransport struct {
	store *session.Store
}

func (t redisSessionTransport) Establish(ctx context.Context, userID string, remember bool) (SessionHandle, error) {
	handle, err := t.store.Establish(ctx, userID, remember)
	if err != nil {
		return "", err
	}
	return SessionHandle(handle), nil
}

func (t redisSessionTransport) SetFlag(ctx context.Context, handle SessionHandle, name, value string) error {
	return t.store.SetFlag(ctx, string(handle), name, value)
}
