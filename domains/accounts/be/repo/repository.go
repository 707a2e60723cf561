package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/pagebot/platform/go/persistence"
)

// Repository exposes persistence operations required by the accounts service.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateTenantParams) (persistence.Tenant, error)
	Exists(ctx context.Context, email, username string) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.Tenant, error)
	GetByEmail(ctx context.Context, email string) (persistence.Tenant, error)
}

type postgresRepository struct {
	store *persistence.TenantStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.TenantStore) Repository {
	if store == nil {
		panic("tenant store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateTenantParams) (persistence.Tenant, error) {
	return r.store.CreateTenant(ctx, params)
}

func (r *postgresRepository) Exists(ctx context.Context, email, username string) (bool, error) {
	return r.store.TenantExists(ctx, email, username)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Tenant, error) {
	return r.store.GetTenant(ctx, id)
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (persistence.Tenant, error) {
	return r.store.GetTenantByEmail(ctx, email)
}
