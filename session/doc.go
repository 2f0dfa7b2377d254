// Package session provides the bundled Redis session transport: session
// state lives in a Redis hash with a TTL, and the handle given to callers
// is a signed token carrying only the session ID.
//
// # Storage layout
//
// One hash per session at <prefix>:s:<id> with fields uid, created,
// remember, and f:<name> per flag. The hash TTL is the session lifetime;
// remember-me sessions use the longer configured lifetime.
//
// # What this package must NOT do
//
//   - Decide when sessions are created; the gate owns that ordering.
//   - Store credentials or anything derived from passwords.
package session
