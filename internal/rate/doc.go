// Package rate provides the Redis-backed failed-login counters and the
// throttle key derivation used by the login gate.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on the first hit. Key
// prefix:
//   - lg: failed logins per email+IP pair
//
// # What this package must NOT do
//
//   - Implement gate policy (lockout errors, audit events); that lives in
//     the root package.
//   - Be imported outside the authgate module.
package rate
