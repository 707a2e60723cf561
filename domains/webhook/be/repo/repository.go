package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/pagebot/platform/go/persistence"
)

// Repository exposes the reads and the single write the webhook path needs. None of these
// calls is tenant-scoped by a session; the tenant is derived from the resolved page.
type Repository interface {
	FindActivePage(ctx context.Context, pageID string) (persistence.Page, error)
	ListActiveRules(ctx context.Context, tenantID uuid.UUID, pageID string) ([]persistence.ResponseRule, error)
	GetActiveAIConfig(ctx context.Context, tenantID uuid.UUID, pageID string) (persistence.AIConfig, error)
	AppendHistory(ctx context.Context, params persistence.AppendHistoryParams) error
	VerifyTokenRegistered(ctx context.Context, token string) (bool, error)
}

// Stores groups the persistence stores backing the webhook repository.
type Stores struct {
	Pages     *persistence.PageStore
	Rules     *persistence.RuleStore
	AIConfigs *persistence.AIConfigStore
	History   *persistence.HistoryStore
	Tenants   *persistence.TenantStore
}

type postgresRepository struct {
	stores Stores
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(stores Stores) Repository {
	if stores.Pages == nil || stores.Rules == nil || stores.AIConfigs == nil || stores.History == nil || stores.Tenants == nil {
		panic("webhook repository requires every store")
	}
	return &postgresRepository{stores: stores}
}

func (r *postgresRepository) FindActivePage(ctx context.Context, pageID string) (persistence.Page, error) {
	return r.stores.Pages.FindActivePage(ctx, pageID)
}

func (r *postgresRepository) ListActiveRules(ctx context.Context, tenantID uuid.UUID, pageID string) ([]persistence.ResponseRule, error) {
	return r.stores.Rules.ListActiveRules(ctx, tenantID, pageID)
}

func (r *postgresRepository) GetActiveAIConfig(ctx context.Context, tenantID uuid.UUID, pageID string) (persistence.AIConfig, error) {
	return r.stores.AIConfigs.GetActiveAIConfig(ctx, tenantID, pageID)
}

func (r *postgresRepository) AppendHistory(ctx context.Context, params persistence.AppendHistoryParams) error {
	return r.stores.History.AppendHistory(ctx, params)
}

func (r *postgresRepository) VerifyTokenRegistered(ctx context.Context, token string) (bool, error) {
	return r.stores.Tenants.VerifyTokenRegistered(ctx, token)
}
