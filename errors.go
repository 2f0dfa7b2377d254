package authgate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrSSOCodeMalformed is returned when a supplied SSO code is not
	// exactly five alphanumeric characters.
	ErrSSOCodeMalformed = errors.New("sso code malformed")
	// ErrSSONotConfigured is returned when no expected SSO code is
	// configured. The gate fails closed: a missing secret is never
	// treated as "no gate".
	ErrSSONotConfigured = errors.New("sso code not configured")
	// ErrSSOCodeIncorrect is returned when a well-formed SSO code does not
	// match the configured code.
	ErrSSOCodeIncorrect = errors.New("sso code incorrect")

	// ErrLoginRateLimited is wrapped by [LockoutError] when a throttle key
	// has exceeded its failed-attempt budget.
	ErrLoginRateLimited = errors.New("too many login attempts")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	// The message is uniform so callers cannot probe for registered emails.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidField marks a registration field that failed syntactic
	// validation.
	ErrInvalidField = errors.New("invalid field")
	// ErrDuplicateEmail is returned when registration hits an existing
	// email. Disclosing this is intentional and accepted for registration.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidRole is returned when the requested role is not in the
	// allowed set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrWeakPassword is returned when a registration password fails the
	// configured password policy.
	ErrWeakPassword = errors.New("password does not meet policy")
	// ErrPasswordMismatch is returned when password and confirmation
	// differ.
	ErrPasswordMismatch = errors.New("password confirmation does not match")

	// ErrCounterStoreUnavailable wraps Redis failures in the rate-limit
	// path. The gate fails closed on it.
	ErrCounterStoreUnavailable = errors.New("counter store unavailable")

	// ErrGateNotReady is returned when a Gate is used without its required
	// collaborators.
	ErrGateNotReady = errors.New("gate not ready")
)

// LockoutError reports that a throttle key is locked out and when it becomes
// available again. It wraps [ErrLoginRateLimited].
type LockoutError struct {
	RetryAfter        time.Duration
	RetryAfterSeconds int
	RetryAfterMinutes int
}

func newLockoutError(retryAfter time.Duration) *LockoutError {
	if retryAfter < 0 {
		retryAfter = 0
	}
	seconds := int(retryAfter / time.Second)
	if retryAfter%time.Second > 0 {
		seconds++
	}
	minutes := seconds / 60
	if seconds%60 > 0 {
		minutes++
	}
	return &LockoutError{
		RetryAfter:        retryAfter,
		RetryAfterSeconds: seconds,
		RetryAfterMinutes: minutes,
	}
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("too many login attempts, retry in %ds", e.RetryAfterSeconds)
}

func (e *LockoutError) Unwrap() error { return ErrLoginRateLimited }

// FieldError attributes a validation failure to a named field. It wraps the
// sentinel describing the failure class so errors.Is keeps working across
// the aggregate.
type FieldError struct {
	Field   string
	Message string
	err     error
}

func newFieldError(field, message string, sentinel error) FieldError {
	return FieldError{Field: field, Message: message, err: sentinel}
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e FieldError) Unwrap() error { return e.err }

// FieldErrors aggregates every field failure of a registration payload.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes each field error so errors.Is matches any contained
// sentinel.
func (e FieldErrors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, fe := range e {
		errs = append(errs, fe)
	}
	return errs
}
