package authgate

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/opsdesk/authgate/internal/rate"
	"github.com/opsdesk/authgate/password"
)

// Gate runs the SSO-gated login and registration flows. Instances are
// built through [Builder.Build] and are immutable afterwards.
type Gate struct {
	config   Config
	sso      *SSOGate
	limiter  *rate.Limiter
	identity IdentityStore
	sessions SessionTransport
	hasher   *password.Argon2
	policy   password.Policy
	audit    *auditDispatcher
	metrics  *Metrics
}

// Close flushes the audit dispatcher. Safe to call on a nil Gate.
func (g *Gate) Close() {
	if g == nil {
		return
	}
	if g.audit != nil {
		g.audit.Close()
	}
}

// MetricsSnapshot copies the current counters.
func (g *Gate) MetricsSnapshot() MetricsSnapshot {
	if g == nil || g.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return g.metrics.Snapshot()
}

// AuditDropped returns how many audit events were dropped under
// backpressure.
func (g *Gate) AuditDropped() uint64 {
	if g == nil || g.audit == nil {
		return 0
	}
	return g.audit.Dropped()
}

func (g *Gate) metricInc(id MetricID) {
	if g == nil || g.metrics == nil {
		return
	}
	g.metrics.Inc(id)
}

// Login runs the full login pipeline: lockout check, SSO gate, credential
// verification, session establishment. The lockout check is the outermost
// gate; a locked key returns a [*LockoutError] before the SSO code or the
// identity store are ever consulted. The SSO gate runs before credential
// verification, so an invalid code costs no identity-store round-trip and
// leaks nothing about the other fields.
//
// A failed credential check records one limiter hit; a successful login
// clears the key's counter.
func (g *Gate) Login(ctx context.Context, req LoginRequest) (SessionHandle, error) {
	if g == nil || g.identity == nil || g.sessions == nil {
		return "", ErrGateNotReady
	}

	email := normalizeEmail(req.Email)
	key := rate.LoginKey(email, clientIPFromContext(ctx))

	limited, err := g.limiter.TooManyAttempts(ctx, key)
	if err != nil {
		// Fail closed: an unreachable counter store must not grant
		// unlimited attempts.
		return "", fmt.Errorf("%w: %v", ErrCounterStoreUnavailable, err)
	}
	if limited {
		retryAfter, ttlErr := g.limiter.AvailableIn(ctx, key)
		if ttlErr != nil {
			retryAfter = g.config.Security.LoginCooldown
		}
		lockErr := newLockoutError(retryAfter)
		g.metricInc(MetricLoginLockout)
		g.emitAudit(ctx, EventLoginLockout, false, "", email, lockErr, map[string]string{
			"retry_after_seconds": fmt.Sprintf("%d", lockErr.RetryAfterSeconds),
		})
		return "", lockErr
	}

	if err := g.sso.Validate(req.SSOCode); err != nil {
		g.metricInc(MetricSSORejected)
		if err == ErrSSONotConfigured {
			g.metricInc(MetricSSOUnconfigured)
		}
		g.emitAudit(ctx, EventSSORejected, false, "", email, err, map[string]string{
			"flow": "login",
		})
		return "", err
	}

	user, err := g.identity.FindByEmail(ctx, email)
	if err != nil {
		g.metricInc(MetricLoginFailure)
		g.emitAudit(ctx, EventLoginFailure, false, "", email, err, map[string]string{
			"reason": "store_lookup_failed",
		})
		return "", err
	}
	if user == nil {
		return "", g.failCredentials(ctx, key, email, "", "user_not_found")
	}

	ok, err := g.identity.VerifyPassword(user, req.Password)
	if err != nil || !ok {
		return "", g.failCredentials(ctx, key, email, user.ID, "password_mismatch")
	}

	// Counter cleanup is best-effort: a Redis hiccup must not fail an
	// authenticated login.
	if err := g.limiter.Clear(ctx, key); err != nil {
		log.Print("authgate: failed-login counter clear failed")
	}

	handle, err := g.sessions.Establish(ctx, user.ID, req.Remember)
	if err != nil {
		g.metricInc(MetricLoginFailure)
		g.emitAudit(ctx, EventLoginFailure, false, user.ID, email, err, map[string]string{
			"reason": "session_establish_failed",
		})
		return "", err
	}

	g.metricInc(MetricSessionEstablished)
	g.metricInc(MetricLoginSuccess)
	g.emitAudit(ctx, EventLoginSuccess, true, user.ID, email, nil, nil)

	return handle, nil
}

func (g *Gate) failCredentials(ctx context.Context, key, email, userID, reason string) error {
	if _, err := g.limiter.Hit(ctx, key); err != nil {
		log.Print("authgate: failed-login counter hit failed")
	}

	g.metricInc(MetricLoginFailure)
	g.emitAudit(ctx, EventLoginFailure, false, userID, email, ErrInvalidCredentials, map[string]string{
		"reason": reason,
	})

	return ErrInvalidCredentials
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
