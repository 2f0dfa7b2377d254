package authgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate covers the syntactic field rules; confirmation, policy, and role
// checks are explicit because they map to their own sentinels.
var validate = validator.New(validator.WithRequiredStructEnabled())

type registerFields struct {
	Name     string `validate:"required,max=255"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required"`
	Role     string `validate:"required"`
}

// Register runs the full registration pipeline in strict order: SSO gate,
// field validation, user creation, registered event, session establishment,
// one-shot onboarding flag. The first failure aborts every later step;
// CreateUser is the single point of no return and must be atomic in the
// identity store.
func (g *Gate) Register(ctx context.Context, req RegisterRequest) (SessionHandle, error) {
	if g == nil || g.identity == nil || g.sessions == nil || g.hasher == nil {
		return "", ErrGateNotReady
	}

	email := normalizeEmail(req.Email)

	if err := g.sso.Validate(req.SSOCode); err != nil {
		g.metricInc(MetricSSORejected)
		if err == ErrSSONotConfigured {
			g.metricInc(MetricSSOUnconfigured)
		}
		g.emitAudit(ctx, EventSSORejected, false, "", email, err, map[string]string{
			"flow": "registration",
		})
		return "", err
	}

	if ferrs := g.validateRegistration(req, email); len(ferrs) > 0 {
		g.metricInc(MetricRegistrationFailure)
		g.emitAudit(ctx, EventRegistrationFailure, false, "", email, ferrs, map[string]string{
			"reason": "field_validation",
		})
		return "", ferrs
	}

	hash, err := g.hasher.Hash(req.Password)
	if err != nil {
		g.metricInc(MetricRegistrationFailure)
		g.emitAudit(ctx, EventRegistrationFailure, false, "", email, err, map[string]string{
			"reason": "hash_failed",
		})
		return "", err
	}

	created, err := g.identity.CreateUser(ctx, NewUser{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			g.metricInc(MetricRegistrationDuplicate)
			g.emitAudit(ctx, EventRegistrationDuplicate, false, "", email, ErrDuplicateEmail, nil)
			return "", FieldErrors{newFieldError("email", "email already registered", ErrDuplicateEmail)}
		}
		g.metricInc(MetricRegistrationFailure)
		g.emitAudit(ctx, EventRegistrationFailure, false, "", email, err, map[string]string{
			"reason": "store_create_failed",
		})
		return "", err
	}

	g.metricInc(MetricRegistrationSuccess)
	g.emitAudit(ctx, EventRegistered, true, created.ID, email, nil, map[string]string{
		"role": created.Role,
	})

	handle, err := g.sessions.Establish(ctx, created.ID, false)
	if err != nil {
		g.emitAudit(ctx, EventRegistrationFailure, false, created.ID, email, err, map[string]string{
			"reason": "session_establish_failed",
		})
		return "", fmt.Errorf("user created but session establishment failed: %w", err)
	}

	if err := g.sessions.SetFlag(ctx, handle, RegisteredFlag, "1"); err != nil {
		g.emitAudit(ctx, EventRegistrationFailure, false, created.ID, email, err, map[string]string{
			"reason": "session_flag_failed",
		})
		return "", fmt.Errorf("user created but session flag failed: %w", err)
	}

	g.metricInc(MetricSessionEstablished)

	return handle, nil
}

func (g *Gate) validateRegistration(req RegisterRequest, email string) FieldErrors {
	var ferrs FieldErrors

	fields := registerFields{
		Name:     req.Name,
		Email:    email,
		Password: req.Password,
		Role:     req.Role,
	}
	if err := validate.Struct(fields); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, ve := range verrs {
				ferrs = append(ferrs, fieldErrorFromTag(ve))
			}
		} else {
			ferrs = append(ferrs, newFieldError("request", "invalid payload", ErrInvalidField))
		}
	}

	if req.Password != "" {
		if req.Password != req.PasswordConfirmation {
			ferrs = append(ferrs, newFieldError("password_confirmation", "password confirmation does not match", ErrPasswordMismatch))
		}
		if err := g.policy.Check(req.Password); err != nil {
			ferrs = append(ferrs, newFieldError("password", err.Error(), ErrWeakPassword))
		}
	}

	if req.Role != "" && !g.roleAllowed(req.Role) {
		ferrs = append(ferrs, newFieldError("role", fmt.Sprintf("role %q is not allowed", req.Role), ErrInvalidRole))
	}

	return ferrs
}

func (g *Gate) roleAllowed(role string) bool {
	for _, allowed := range g.config.Registration.AllowedRoles {
		if role == allowed {
			return true
		}
	}
	return false
}

func fieldErrorFromTag(ve validator.FieldError) FieldError {
	field := fieldName(ve.StructField())

	switch ve.Tag() {
	case "required":
		return newFieldError(field, "is required", ErrInvalidField)
	case "max":
		return newFieldError(field, fmt.Sprintf("must not exceed %s characters", ve.Param()), ErrInvalidField)
	case "email":
		return newFieldError(field, "must be a valid email address", ErrInvalidField)
	default:
		return newFieldError(field, "is invalid", ErrInvalidField)
	}
}

func fieldName(structField string) string {
	switch structField {
	case "Name":
		return "name"
	case "Email":
		return "email"
	case "Password":
		return "password"
	case "Role":
		return "role"
	default:
		return structField
	}
}
