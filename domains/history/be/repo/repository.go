package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/pagebot/platform/go/persistence"
)

// Repository exposes persistence operations required by the history service.
type Repository interface {
	List(ctx context.Context, tenantID uuid.UUID, pageID string, limit, offset int) ([]persistence.HistoryRecord, error)
	Summarize(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time) (persistence.HistorySummary, error)
	Daily(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time) ([]persistence.DailyCount, error)
	EachSince(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time, fn func(persistence.HistoryRecord) error) error
}

type postgresRepository struct {
	store *persistence.HistoryStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.HistoryStore) Repository {
	if store == nil {
		panic("history store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) List(ctx context.Context, tenantID uuid.UUID, pageID string, limit, offset int) ([]persistence.HistoryRecord, error) {
	return r.store.ListHistory(ctx, tenantID, pageID, limit, offset)
}

func (r *postgresRepository) Summarize(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time) (persistence.HistorySummary, error) {
	return r.store.SummarizeHistory(ctx, tenantID, pageID, since)
}

func (r *postgresRepository) Daily(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time) ([]persistence.DailyCount, error) {
	return r.store.DailyHistory(ctx, tenantID, pageID, since)
}

func (r *postgresRepository) EachSince(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time, fn func(persistence.HistoryRecord) error) error {
	return r.store.EachHistorySince(ctx, tenantID, pageID, since, fn)
}
