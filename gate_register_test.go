package authgate

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		SSOCode:              "AB12C",
		Name:                 "Alice Example",
		Email:                "alice@example.com",
		Password:             "str0ng-password",
		PasswordConfirmation: "str0ng-password",
		Role:                 RoleAccountManager,
	}
}

func TestRegisterSuccess(t *testing.T) {
	fx := newGateFixture(t, gateTestConfig())

	handle, err := fx.gate.Register(context.Background(), validRegisterRequest())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if handle == "" {
		t.Fatal("expected a session handle")
	}

	// The stored password must be hashed, never plaintext.
	stored := fx.identity.users["alice@example.com"]
	if stored == nil {
		t.Fatal("expected user persisted")
	}
	if stored.PasswordHash == "str0ng-password" || !strings.HasPrefix(stored.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %q", stored.PasswordHash)
	}
	if stored.Role != RoleAccountManager {
		t.Fatalf("unexpected role: %q", stored.Role)
	}

	// New registrations carry the one-shot onboarding flag.
	if fx.sessions.flags[handle][RegisteredFlag] != "1" {
		t.Fatalf("expected %s flag on session, got %+v", RegisteredFlag, fx.sessions.flags[handle])
	}

	event := waitForAuditEvent(t, fx.sink, EventRegistered)
	if !event.Success || event.UserID != stored.ID {
		t.Fatalf("unexpected registered event: %+v", event)
	}
	if event.Metadata["role"] != RoleAccountManager {
		t.Fatalf("expected role metadata, got %+v", event.Metadata)
	}

	snap := fx.gate.MetricsSnapshot()
	if snap.Counters[MetricRegistrationSuccess] != 1 {
		t.Fatalf("expected registration success counter, got %d", snap.Counters[MetricRegistrationSuccess])
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	fx := newGateFixture(t, gateTestConfig())

	req := validRegisterRequest()
	req.Email = "  Alice@Example.COM "
	if _, err := fx.gate.Register(context.Background(), req); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if fx.identity.users["alice@example.com"] == nil {
		t.Fatal("expected email stored normalized")
	}
}

func TestRegisterSSOGateShortCircuits(t *testing.T) {
	fx := newGateFixture(t, gateTestConfig())

	req := validRegisterRequest()
	req.SSOCode = "XXXXX"
	_, err := fx.gate.Register(context.Background(), req)
	if !errors.Is(err, ErrSSOCodeIncorrect) {
		t.Fatalf("expected ErrSSOCodeIncorrect, got %v", err)
	}

	// A rejected code must come before validation and creation.
	_, create, _ := fx.identity.calls()
	if create != 0 {
		t.Fatal("expected no user created")
	}
	if fx.sessions.sessionCount() != 0 {
		t.Fatal("expected no session")
	}

	event := waitForAuditEvent(t, fx.sink, EventSSORejected)
	if event.Metadata["flow"] != "registration" {
		t.Fatalf("expected registration flow metadata, got %+v", event.Metadata)
	}
}

func TestRegisterSSOBeforeValidation(t *testing.T) {
	fx := newGateFixture(t, gateTestConfig())

	// Everything else is invalid too; the SSO error must win.
	_, err := fx.gate.Register(context.Background(), RegisterRequest{
		SSOCode: "bad",
		Email:   "not-an-email",
		Role:    "superadmin",
	})
	if !errors.Is(err, ErrSSOCodeMalformed) {
		t.Fatalf("expected ErrSSOCodeMalformed, got %v", err)
	}
}

func TestRegisterFieldValidation(t *testing.T) {
	fx := newGateFixture(t, gateTestConfig())

	req := validRegisterRequest()
	req.Name = ""
	req.Email = "not-an-email"
	_, err := fx.gate.Register(context.Background(), req)

	var ferrs FieldErrors
	if !errors.As(err, &ferrs) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if !errors.Is(err, ErrInvalidField) {
		t.Fatal("expected errors.Is match on ErrInvalidField")
	}

	fields := map[string]bool{}
	for _, fe := range ferrs {
		fields[fe.Field] = true
	}
	if !fields["name"] || !fields["email"] {
		t.Fatalf("expected name and email failures, got %+v", ferrs)
	}

	_, create, _ := fx.identity.calls()
	if create != 0 {
		t.Fatal("expected no user created on validation failure")
	}
}

func TestRegisterLongFieldsRejected(t *testing.T) {
	fx := newGateFixture(t, gateTestConfig())

	req := validRegisterRequest()
	req.Name = strings.Repeat("a", 256)
	_, err := fx.gate.Register(context.Background(), req)
	if !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField for oversized name, got %v", err)
	}
}

func TestRegisterPasswordConfirmationMismatch(t *testing.T) {
	fx := newGateFixture(t, gateTestConfig())

	req := validRegisterRequest()
	req.PasswordConfirmation = "different-password-1"
	_, err := fx.gate.Register(context.Background(), req)
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	_, create, _ := fx.identity.calls()
	if create != 0 {
		t.Fatal("expected no user created")
	}
}

func TestRegisterWeakPasswordRejected(t *testing.T) {
	fx := newGateFixture(t, gateTestConfig())

	req := validRegisterRequest()
	req.Password = "short"
	req.PasswordConfirmation = "short"
	_, err := fx.gate.Register(context.Background(), req)
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestRegisterDisallowedRoleRejected(t *testing.T) {
	fx := newGateFixture(t, gateTestConfig())

	req := validRegisterRequest()
	req.Role = "superadmin"
	_, err := fx.gate.Register(context.Background(), req)
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	_, create, _ := fx.identity.calls()
	if create != 0 {
		t.Fatal("expected no user created for disallowed role")
	}
}

func TestRegisterBothAllowedRoles(t *testing.T) {
	fx := newGateFixture(t, gateTestConfig())

	for i, role := range []string{RoleAdministrator, RoleAccountManager} {
		req := validRegisterRequest()
		req.Email = []string{"admin@example.com", "manager@example.com"}[i]
		req.Role = role
		if _, err := fx.gate.Register(context.Background(), req); err != nil {
			t.Fatalf("role %s rejected: %v", role, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	fx := newGateFixture(t, gateTestConfig())

	if _, err := fx.gate.Register(context.Background(), validRegisterRequest()); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, err := fx.gate.Register(context.Background(), validRegisterRequest())
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	var ferrs FieldErrors
	if !errors.As(err, &ferrs) || len(ferrs) != 1 || ferrs[0].Field != "email" {
		t.Fatalf("expected single email field error, got %v", err)
	}

	// Only the first registration got a session.
	if fx.sessions.sessionCount() != 1 {
		t.Fatalf("expected 1 session, got %d", fx.sessions.sessionCount())
	}

	snap := fx.gate.MetricsSnapshot()
	if snap.Counters[MetricRegistrationDuplicate] != 1 {
		t.Fatalf("expected duplicate counter, got %d", snap.Counters[MetricRegistrationDuplicate])
	}
}

func TestRegisterCreateErrorSurfaces(t *testing.T) {
	fx := newGateFixture(t, gateTestConfig())
	fx.identity.createErr = errStoreDown

	_, err := fx.gate.Register(context.Background(), validRegisterRequest())
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
	if fx.sessions.sessionCount() != 0 {
		t.Fatal("expected no session after create failure")
	}
}

func TestRegisterSessionFailureAfterCreate(t *testing.T) {
	fx := newGateFixture(t, gateTestConfig())
	fx.sessions.establishErr = errStoreDown

	_, err := fx.gate.Register(context.Background(), validRegisterRequest())
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected establish error to surface, got %v", err)
	}

	// CreateUser is the point of no return: the user stays persisted even
	// when session establishment fails.
	if fx.identity.users["alice@example.com"] == nil {
		t.Fatal("expected user to remain after session failure")
	}
	if !strings.Contains(err.Error(), "user created") {
		t.Fatalf("expected error to disclose that the user exists, got %q", err)
	}
}

func TestRegisterDoesNotConsumeLoginBudget(t *testing.T) {
	fx := newGateFixture(t, gateTestConfig())
	ctx := WithClientIP(context.Background(), "203.0.113.7")

	req := validRegisterRequest()
	req.Role = "superadmin"
	for i := 0; i < 10; i++ {
		_, _ = fx.gate.Register(ctx, req)
	}

	if _, err := fx.gate.Register(ctx, validRegisterRequest()); err != nil {
		t.Fatalf("registration failures must not rate-limit: %v", err)
	}
}

func TestRegisterNilGateNotReady(t *testing.T) {
	var gate *Gate
	if _, err := gate.Register(context.Background(), RegisterRequest{}); !errors.Is(err, ErrGateNotReady) {
		t.Fatalf("expected ErrGateNotReady, got %v", err)
	}
}
