package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/opsdesk/authgate"
	"github.com/opsdesk/authgate/password"
)

const uniqueViolationCode = "23505"

// Querier is the subset of pgxpool.Pool used by the store. pgxmock pools
// satisfy it too.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ authgate.IdentityStore = (*Store)(nil)

// Store is a PostgreSQL-backed identity store.
type Store struct {
	db     Querier
	hasher *password.Argon2
}

// New returns a store over the given pool. The hasher must match the one
// used when password hashes were written.
func New(db Querier, hasher *password.Argon2) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if hasher == nil {
		return nil, errors.New("hasher is required")
	}

	return &Store{db: db, hasher: hasher}, nil
}

// FindByEmail returns (nil, nil) when no user has the email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authgate.UserRecord, error) {
	const query = `
        SELECT id, name, email, password_hash, role
        FROM users
        WHERE email = $1
    `

	var record authgate.UserRecord
	if err := s.db.QueryRow(ctx, query, email).Scan(
		&record.ID,
		&record.Name,
		&record.Email,
		&record.PasswordHash,
		&record.Role,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return &record, nil
}

// CreateUser inserts the user and returns the stored record. A duplicate
// email maps to [authgate.ErrDuplicateEmail]; nothing is written in that
// case.
func (s *Store) CreateUser(ctx context.Context, user authgate.NewUser) (*authgate.UserRecord, error) {
	const query = `
        INSERT INTO users (id, name, email, password_hash, role)
        VALUES ($1, $2, $3, $4, $5)
    `

	id := uuid.NewString()
	if _, err := s.db.Exec(ctx, query, id, user.Name, user.Email, user.PasswordHash, user.Role); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, authgate.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &authgate.UserRecord{
		ID:           id,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
	}, nil
}

// VerifyPassword compares plaintext against the stored hash.
func (s *Store) VerifyPassword(record *authgate.UserRecord, plaintext string) (bool, error) {
	if record == nil {
		return false, errors.New("record is required")
	}
	return s.hasher.Verify(plaintext, record.PasswordHash)
}
