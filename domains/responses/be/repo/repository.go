package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/pagebot/platform/go/persistence"
)

// Repository exposes persistence operations required by the responses service.
type Repository interface {
	List(ctx context.Context, tenantID uuid.UUID, pageID string) ([]persistence.ResponseRule, error)
	ListActive(ctx context.Context, tenantID uuid.UUID, pageID string) ([]persistence.ResponseRule, error)
	Create(ctx context.Context, params persistence.CreateRuleParams) (persistence.ResponseRule, error)
	Update(ctx context.Context, tenantID, ruleID uuid.UUID, params persistence.UpdateRuleParams) (persistence.ResponseRule, error)
	Delete(ctx context.Context, tenantID, ruleID uuid.UUID) error
}

type postgresRepository struct {
	store *persistence.RuleStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.RuleStore) Repository {
	if store == nil {
		panic("rule store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) List(ctx context.Context, tenantID uuid.UUID, pageID string) ([]persistence.ResponseRule, error) {
	return r.store.ListRules(ctx, tenantID, pageID)
}

func (r *postgresRepository) ListActive(ctx context.Context, tenantID uuid.UUID, pageID string) ([]persistence.ResponseRule, error) {
	return r.store.ListActiveRules(ctx, tenantID, pageID)
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateRuleParams) (persistence.ResponseRule, error) {
	return r.store.CreateRule(ctx, params)
}

func (r *postgresRepository) Update(ctx context.Context, tenantID, ruleID uuid.UUID, params persistence.UpdateRuleParams) (persistence.ResponseRule, error) {
	return r.store.UpdateRule(ctx, tenantID, ruleID, params)
}

func (r *postgresRepository) Delete(ctx context.Context, tenantID, ruleID uuid.UUID) error {
	return r.store.DeleteRule(ctx, tenantID, ruleID)
}
