package authgate

import (
	"errors"
	"time"
)

// Config collects every tunable of the gate. Zero values are filled from
// defaultConfig during Build; out-of-range values are rejected, not
// silently clamped.
type Config struct {
	SSO          SSOConfig
	Security     SecurityConfig
	Password     PasswordConfig
	Registration RegistrationConfig
	Session      SessionConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

// SSOConfig carries the shared-secret gate code. An empty Code makes every
// SSO check fail with [ErrSSONotConfigured].
type SSOConfig struct {
	Code string
}

// SecurityConfig tunes the failed-login rate limiter.
type SecurityConfig struct {
	MaxLoginAttempts int
	LoginCooldown    time.Duration
}

// PasswordConfig tunes Argon2id hashing and the registration password
// policy.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	MinLength      int
	RequireLetters bool
	RequireNumbers bool
}

// RegistrationConfig constrains the registration flow.
type RegistrationConfig struct {
	AllowedRoles []string
}

// SessionConfig tunes the bundled Redis session store. Ignored when a
// custom [SessionTransport] is injected.
type SessionConfig struct {
	RedisPrefix      string
	Lifetime         time.Duration
	RememberLifetime time.Duration
	TokenSecret      []byte
}

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles counter metrics.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration a fresh [Builder] starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Security: SecurityConfig{
			MaxLoginAttempts: 5,
			LoginCooldown:    time.Minute,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   8,
		},
		Registration: RegistrationConfig{
			AllowedRoles: []string{RoleAdministrator, RoleAccountManager},
		},
		Session: SessionConfig{
			RedisPrefix:      "ag",
			Lifetime:         2 * time.Hour,
			RememberLifetime: 30 * 24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Registration.AllowedRoles != nil {
		out.Registration.AllowedRoles = append([]string(nil), cfg.Registration.AllowedRoles...)
	}
	if cfg.Session.TokenSecret != nil {
		out.Session.TokenSecret = append([]byte(nil), cfg.Session.TokenSecret...)
	}
	return out
}

func validateConfig(cfg *Config) error {
	if cfg.Security.MaxLoginAttempts == 0 {
		cfg.Security.MaxLoginAttempts = 5
	}
	if cfg.Security.MaxLoginAttempts < 0 {
		return errors.New("MaxLoginAttempts must be positive")
	}
	if cfg.Security.LoginCooldown == 0 {
		cfg.Security.LoginCooldown = time.Minute
	}
	if cfg.Security.LoginCooldown < time.Second {
		return errors.New("LoginCooldown must be at least one second")
	}

	if cfg.Password.MinLength == 0 {
		cfg.Password.MinLength = 8
	}
	if cfg.Password.MinLength < 0 {
		return errors.New("password MinLength must be positive")
	}

	if len(cfg.Registration.AllowedRoles) == 0 {
		cfg.Registration.AllowedRoles = []string{RoleAdministrator, RoleAccountManager}
	}
	for _, role := range cfg.Registration.AllowedRoles {
		if role == "" {
			return errors.New("AllowedRoles must not contain empty roles")
		}
	}

	if cfg.Session.RedisPrefix == "" {
		cfg.Session.RedisPrefix = "ag"
	}
	if cfg.Session.Lifetime == 0 {
		cfg.Session.Lifetime = 2 * time.Hour
	}
	if cfg.Session.Lifetime < time.Minute {
		return errors.New("session Lifetime must be at least one minute")
	}
	if cfg.Session.RememberLifetime == 0 {
		cfg.Session.RememberLifetime = 30 * 24 * time.Hour
	}
	if cfg.Session.RememberLifetime < cfg.Session.Lifetime {
		return errors.New("RememberLifetime must not be shorter than Lifetime")
	}

	if cfg.Audit.Enabled && cfg.Audit.BufferSize <= 0 {
		cfg.Audit.BufferSize = 256
	}

	return nil
}
