package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/pagebot/platform/go/persistence"
)

// Repository exposes persistence operations required by the pages service.
type Repository interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]persistence.Page, error)
	Connect(ctx context.Context, params persistence.ConnectPageParams) (persistence.Page, error)
	SetActive(ctx context.Context, tenantID uuid.UUID, pageID string, active bool) error
	Delete(ctx context.Context, tenantID uuid.UUID, pageID string) error
}

type postgresRepository struct {
	store *persistence.PageStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.PageStore) Repository {
	if store == nil {
		panic("page store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) List(ctx context.Context, tenantID uuid.UUID) ([]persistence.Page, error) {
	return r.store.ListPages(ctx, tenantID)
}

func (r *postgresRepository) Connect(ctx context.Context, params persistence.ConnectPageParams) (persistence.Page, error) {
	return r.store.ConnectPage(ctx, params)
}

func (r *postgresRepository) SetActive(ctx context.Context, tenantID uuid.UUID, pageID string, active bool) error {
	return r.store.SetPageActive(ctx, tenantID, pageID, active)
}

func (r *postgresRepository) Delete(ctx context.Context, tenantID uuid.UUID, pageID string) error {
	return r.store.DeletePage(ctx, tenantID, pageID)
}
