// Package password implements Argon2id password hashing plus the
// registration password policy.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// # Architecture boundaries
//
// This package owns hashing, verification, and policy checks only. When a
// check fails it returns plain errors; mapping them to the gate's error
// taxonomy happens in the root package.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords: callers supply plaintext and receive
//     hashes.
//   - Log plaintext passwords or hash parameters at runtime.
package password
