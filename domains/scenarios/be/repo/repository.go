package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/pagebot/platform/go/persistence"
)

// Repository exposes persistence operations required by the scenarios service.
type Repository interface {
	List(ctx context.Context, tenantID uuid.UUID, pageID string) ([]persistence.Scenario, error)
	Create(ctx context.Context, scenarioID, tenantID uuid.UUID, pageID string, fields persistence.ScenarioFields) (persistence.Scenario, error)
	Update(ctx context.Context, tenantID, scenarioID uuid.UUID, fields persistence.ScenarioFields) (persistence.Scenario, error)
	Delete(ctx context.Context, tenantID, scenarioID uuid.UUID) error
}

type postgresRepository struct {
	store *persistence.ScenarioStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.ScenarioStore) Repository {
	if store == nil {
		panic("scenario store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) List(ctx context.Context, tenantID uuid.UUID, pageID string) ([]persistence.Scenario, error) {
	return r.store.ListScenarios(ctx, tenantID, pageID)
}

func (r *postgresRepository) Create(ctx context.Context, scenarioID, tenantID uuid.UUID, pageID string, fields persistence.ScenarioFields) (persistence.Scenario, error) {
	return r.store.CreateScenario(ctx, scenarioID, tenantID, pageID, fields)
}

func (r *postgresRepository) Update(ctx context.Context, tenantID, scenarioID uuid.UUID, fields persistence.ScenarioFields) (persistence.Scenario, error) {
	return r.store.UpdateScenario(ctx, tenantID, scenarioID, fields)
}

func (r *postgresRepository) Delete(ctx context.Context, tenantID, scenarioID uuid.UUID) error {
	return r.store.DeleteScenario(ctx, tenantID, scenarioID)
}
