package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/zenGate-Global/pagebot/domains/accounts/be/repo"
	platformauth "github.com/zenGate-Global/pagebot/platform/go/auth"
	"github.com/zenGate-Global/pagebot/platform/go/persistence"
	"github.com/zenGate-Global/pagebot/platform/go/requesttrace"
	"github.com/zenGate-Global/pagebot/platform/go/tenant"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError captures input validation problems surfaced by the service.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Domain-level error sentinel values.
var (
	ErrNotFound           = errors.New("account not found")
	ErrConflict           = errors.New("email or username already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const minPasswordLength = 8

// Account is the tenant view returned to its owner. Secrets never leave the service.
type Account struct {
	TenantID      uuid.UUID
	Username      string
	Email         string
	FacebookAppID *string
	CreatedAt     time.Time
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   Account
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Username          string
	Email             string
	Password          string
	FacebookAppID     *string
	FacebookAppSecret *string
	WebhookToken      *string
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string
	Password string
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(subject platformauth.SessionSubject) (string, time.Time, error)
}

// Service exposes the accounts domain operations.
type Service interface {
	Register(ctx context.Context, audit requesttrace.AuditInfo, input RegisterInput) (Account, error)
	Login(ctx context.Context, audit requesttrace.AuditInfo, input LoginInput) (Session, error)
	CurrentUser(ctx context.Context, scope tenant.Scope) (Account, error)
	ResolveScope(ctx context.Context, tenantID uuid.UUID) (tenant.Scope, error)
}

type service struct {
	repo   domainrepo.Repository
	tokens TokenIssuer
	hash   func(password string) (string, error)
	check  func(hash, password string) error
}

// New builds an accounts Service.
func New(repo domainrepo.Repository, tokens TokenIssuer) Service {
	return &service{
		repo:   repo,
		tokens: tokens,
		hash:   platformauth.HashPassword,
		check:  platformauth.CheckPassword,
	}
}

func (s *service) Register(ctx context.Context, audit requesttrace.AuditInfo, input RegisterInput) (Account, error) { //nolint:revive
	normalized, err := validateRegister(input)
	if err != nil {
		return Account{}, err
	}

	exists, err := s.repo.Exists(ctx, normalized.Email, normalized.Username)
	if err != nil {
		return Account{}, err
	}
	if exists {
		return Account{}, ErrConflict
	}

	hashed, err := s.hash(normalized.Password)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	record, err := s.repo.Create(ctx, persistence.CreateTenantParams{
		TenantID:           uuid.New(),
		Username:           normalized.Username,
		Email:              normalized.Email,
		PasswordHash:       hashed,
		FacebookAppID:      normalized.FacebookAppID,
		FacebookAppSecret:  normalized.FacebookAppSecret,
		WebhookVerifyToken: normalized.WebhookToken,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrConflict) {
			return Account{}, ErrConflict
		}
		return Account{}, err
	}

	return mapAccount(record), nil
}

func (s *service) Login(ctx context.Context, audit requesttrace.AuditInfo, input LoginInput) (Session, error) { //nolint:revive
	errs := FieldErrors{}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		errs.add("email", "email is required")
	}
	if input.Password == "" {
		errs.add("password", "password is required")
	}
	if len(errs) > 0 {
		return Session{}, &ValidationError{Fields: errs}
	}

	record, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if err := s.check(record.PasswordHash, input.Password); err != nil {
		if errors.Is(err, platformauth.ErrPasswordMismatch) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	token, expiresAt, err := s.tokens.Issue(platformauth.SessionSubject{
		TenantID: record.TenantID,
		Username: record.Username,
		Email:    record.Email,
	})
	if err != nil {
		return Session{}, err
	}

	return Session{Token: token, ExpiresAt: expiresAt, Account: mapAccount(record)}, nil
}

func (s *service) CurrentUser(ctx context.Context, scope tenant.Scope) (Account, error) {
	record, err := s.repo.Get(ctx, scope.TenantID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return mapAccount(record), nil
}

// ResolveScope backs the tenant middleware: a token is only honored while its tenant exists.
func (s *service) ResolveScope(ctx context.Context, tenantID uuid.UUID) (tenant.Scope, error) {
	record, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return tenant.Scope{}, ErrNotFound
		}
		return tenant.Scope{}, err
	}
	return tenant.Scope{TenantID: record.TenantID, Username: record.Username, Email: record.Email}, nil
}

func validateRegister(input RegisterInput) (RegisterInput, error) {
	errs := FieldErrors{}

	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" {
		errs.add("username", "username is required")
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" {
		errs.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		errs.add("email", "email is not a valid address")
	}

	if input.Password == "" {
		errs.add("password", "password is required")
	} else if len(input.Password) < minPasswordLength {
		errs.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	input.FacebookAppID = trimOptional(input.FacebookAppID)
	input.FacebookAppSecret = trimOptional(input.FacebookAppSecret)
	input.WebhookToken = trimOptional(input.WebhookToken)

	if len(errs) > 0 {
		return RegisterInput{}, &ValidationError{Fields: errs}
	}
	return input, nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapAccount(record persistence.Tenant) Account {
	return Account{
		TenantID:      record.TenantID,
		Username:      record.Username,
		Email:         record.Email,
		FacebookAppID: record.FacebookAppID,
		CreatedAt:     record.CreatedAt,
	}
}

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}
