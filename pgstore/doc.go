// Package pgstore implements [authgate.IdentityStore] on PostgreSQL via
// pgx.
//
// Expected schema:
//
//	CREATE TABLE users (
//	    id            UUID PRIMARY KEY,
//	    name          TEXT NOT NULL,
//	    email         TEXT NOT NULL UNIQUE,
//	    password_hash TEXT NOT NULL,
//	    role          TEXT NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
// The unique constraint on email is what makes CreateUser atomic: a
// concurrent duplicate insert surfaces as a unique violation, which this
// package maps to [authgate.ErrDuplicateEmail].
package pgstore
