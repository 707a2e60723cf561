package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tenant is an account owning pages and their automation configuration.
type Tenant struct {
	TenantID           uuid.UUID `db:"tenant_id"`
	Username           string    `db:"username"`
	Email              string    `db:"email"`
	PasswordHash       string    `db:"password_hash"`
	FacebookAppID      *string   `db:"facebook_app_id"`
	FacebookAppSecret  *string   `db:"facebook_app_secret"`
	WebhookVerifyToken *string   `db:"webhook_verify_token"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// CreateTenantParams holds the registration payload; the password is already hashed.
type CreateTenantParams struct {
	TenantID           uuid.UUID
	Username           string
	Email              string
	PasswordHash       string
	FacebookAppID      *string
	FacebookAppSecret  *string
	WebhookVerifyToken *string
}

// TenantStore provides access to the tenants table.
type TenantStore struct {
	pool *pgxpool.Pool
}

// NewTenantStore creates a store; assumes migrations already created the table.
func NewTenantStore(pool *pgxpool.Pool) (*TenantStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &TenantStore{pool: pool}, nil
}

const tenantColumns = `tenant_id, username, email, password_hash, facebook_app_id,
	facebook_app_secret, webhook_verify_token, created_at, updated_at`

// CreateTenant inserts a tenant. Duplicate email or username yields ErrConflict.
func (s *TenantStore) CreateTenant(ctx context.Context, params CreateTenantParams) (Tenant, error) {
	if params.TenantID == uuid.Nil {
		return Tenant{}, errors.New("tenant id is required")
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO tenants (
			tenant_id, username, email, password_hash, facebook_app_id,
			facebook_app_secret, webhook_verify_token, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING `+tenantColumns,
		params.TenantID, params.Username, params.Email, params.PasswordHash,
		params.FacebookAppID, params.FacebookAppSecret, params.WebhookVerifyToken,
	)

	tenant, err := scanTenant(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Tenant{}, ErrConflict
		}
		return Tenant{}, fmt.Errorf("insert tenant: %w", err)
	}

	return tenant, nil
}

// TenantExists reports whether a tenant with the given email or username is registered.
func (s *TenantStore) TenantExists(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM tenants WHERE email = $1 OR username = $2)
	`, email, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check tenant existence: %w", err)
	}
	return exists, nil
}

// GetTenant loads a tenant by id.
func (s *TenantStore) GetTenant(ctx context.Context, tenantID uuid.UUID) (Tenant, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE tenant_id = $1`, tenantID)
	return s.scanOne(row, "get tenant")
}

// GetTenantByEmail loads a tenant by login email.
func (s *TenantStore) GetTenantByEmail(ctx context.Context, email string) (Tenant, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE email = $1`, email)
	return s.scanOne(row, "get tenant by email")
}

// VerifyTokenRegistered reports whether any tenant registered the given webhook verify token.
func (s *TenantStore) VerifyTokenRegistered(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM tenants WHERE webhook_verify_token = $1)
	`, token).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup verify token: %w", err)
	}
	return exists, nil
}

func (s *TenantStore) scanOne(row pgx.Row, op string) (Tenant, error) {
	tenant, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, ErrNotFound
		}
		return Tenant{}, fmt.Errorf("%s: %w", op, err)
	}
	return tenant, nil
}

func scanTenant(scanner rowScanner) (Tenant, error) {
	var t Tenant
	err := scanner.Scan(
		&t.TenantID, &t.Username, &t.Email, &t.PasswordHash, &t.FacebookAppID,
		&t.FacebookAppSecret, &t.WebhookVerifyToken, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}
