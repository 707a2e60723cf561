package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/pagebot/platform/go/persistence"
)

// Repository exposes persistence operations required by the AI configuration service.
type Repository interface {
	Get(ctx context.Context, tenantID uuid.UUID, pageID string) (persistence.AIConfig, error)
	GetActive(ctx context.Context, tenantID uuid.UUID, pageID string) (persistence.AIConfig, error)
	Upsert(ctx context.Context, params persistence.UpsertAIConfigParams) (persistence.AIConfig, error)
}

type postgresRepository struct {
	store *persistence.AIConfigStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.AIConfigStore) Repository {
	if store == nil {
		panic("ai config store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Get(ctx context.Context, tenantID uuid.UUID, pageID string) (persistence.AIConfig, error) {
	return r.store.GetAIConfig(ctx, tenantID, pageID)
}

func (r *postgresRepository) GetActive(ctx context.Context, tenantID uuid.UUID, pageID string) (persistence.AIConfig, error) {
	return r.store.GetActiveAIConfig(ctx, tenantID, pageID)
}

func (r *postgresRepository) Upsert(ctx context.Context, params persistence.UpsertAIConfigParams) (persistence.AIConfig, error) {
	return r.store.UpsertAIConfig(ctx, params)
}
