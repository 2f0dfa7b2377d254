// Package authgate implements a shared-secret gated login and registration
// flow: an SSO code gate, a Redis-backed failed-login rate limiter, and a
// credential/registration pipeline over injected identity-store and
// session-transport collaborators.
//
// The package is designed for concurrent server workloads: Gate methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Gate], [Builder], [Config],
// the collaborator interfaces ([IdentityStore], [SessionTransport]) and
// value types. Throttle key derivation and counter mechanics live under
// internal/ and are never exported.
//
// # Ordering contract
//
// For every login request the rate-limit check runs first, then the SSO
// gate, then credential verification. For every registration request the
// SSO gate runs before any field validation or identity-store call. A
// failure at any stage prevents all later stages from executing.
package authgate
