package authgate

import "context"

// Role names accepted by the registration flow. Roles are stored as opaque
// strings; authgate attaches no permission semantics to them.
const (
	RoleAdministrator  = "administrator"
	RoleAccountManager = "account_manager"
)

// RegisteredFlag is the one-shot session flag set after a successful
// registration. Onboarding UIs consume it exactly once.
const RegisteredFlag = "just_registered"

// UserRecord is the identity-store view of a user consumed by the gate.
type UserRecord struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

// NewUser carries the fields handed to [IdentityStore.CreateUser]. The
// password arrives already hashed; authgate never passes plaintext to the
// store.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

// SessionHandle is the opaque session reference returned by the session
// transport. Its format is owned by the transport, not by authgate.
type SessionHandle string

// IdentityStore is the persistent user collaborator. Implementations must
// make CreateUser atomic: on a duplicate email nothing is written and the
// returned error matches [ErrDuplicateEmail].
//
// FindByEmail returns (nil, nil) when no user has the given email.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
	CreateUser(ctx context.Context, user NewUser) (*UserRecord, error)
	VerifyPassword(record *UserRecord, plaintext string) (bool, error)
}

// SessionTransport establishes sessions after a successful login or
// registration and stores per-session flags. The gate dictates when these
// calls happen; the transport owns everything else about the session.
type SessionTransport interface {
	Establish(ctx context.Context, userID string, remember bool) (SessionHandle, error)
	SetFlag(ctx context.Context, handle SessionHandle, name, value string) error
}

// LoginRequest is the input to [Gate.Login].
type LoginRequest struct {
	SSOCode  string
	Email    string
	Password string
	Remember bool
}

// RegisterRequest is the input to [Gate.Register].
type RegisterRequest struct {
	SSOCode              string
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
	Role                 string
}
