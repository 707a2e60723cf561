package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/pagebot/platform/go/persistence"
	"github.com/zenGate-Global/pagebot/platform/go/tenant"
)

type mockRepository struct {
	listFn      func(ctx context.Context, tenantID uuid.UUID, pageID string, limit, offset int) ([]persistence.HistoryRecord, error)
	summarizeFn func(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time) (persistence.HistorySummary, error)
	dailyFn     func(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time) ([]persistence.DailyCount, error)
	eachSinceFn func(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time, fn func(persistence.HistoryRecord) error) error
}

func (m *mockRepository) List(ctx context.Context, tenantID uuid.UUID, pageID string, limit, offset int) ([]persistence.HistoryRecord, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, tenantID, pageID, limit, offset)
}

func (m *mockRepository) Summarize(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time) (persistence.HistorySummary, error) {
	if m.summarizeFn == nil {
		panic("summarizeFn not configured")
	}
	return m.summarizeFn(ctx, tenantID, pageID, since)
}

func (m *mockRepository) Daily(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time) ([]persistence.DailyCount, error) {
	if m.dailyFn == nil {
		panic("dailyFn not configured")
	}
	return m.dailyFn(ctx, tenantID, pageID, since)
}

func (m *mockRepository) EachSince(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time, fn func(persistence.HistoryRecord) error) error {
	if m.eachSinceFn == nil {
		panic("eachSinceFn not configured")
	}
	return m.eachSinceFn(ctx, tenantID, pageID, since, fn)
}

var scope = tenant.Scope{TenantID: uuid.MustParse("5d3c2a8e-7c1b-4f55-9d0e-2a4b6c8d0e1f"), Username: "owner"}

func intPtr(v int) *int { return &v }

func TestServiceListDefaultsAndClamp(t *testing.T) {
	t.Parallel()

	var gotLimit, gotOffset int
	repo := &mockRepository{
		listFn: func(ctx context.Context, tenantID uuid.UUID, pageID string, limit, offset int) ([]persistence.HistoryRecord, error) {
			require.Equal(t, scope.TenantID, tenantID)
			require.Equal(t, "1234", pageID)
			gotLimit, gotOffset = limit, offset
			return nil, nil
		},
	}
	svc := New(repo)

	_, err := svc.List(context.Background(), scope, ListParams{PageID: "1234"})
	require.NoError(t, err)
	require.Equal(t, DefaultLimit, gotLimit)
	require.Equal(t, 0, gotOffset)

	_, err = svc.List(context.Background(), scope, ListParams{PageID: "1234", Limit: intPtr(10_000), Offset: intPtr(20)})
	require.NoError(t, err)
	require.Equal(t, MaxLimit, gotLimit)
	require.Equal(t, 20, gotOffset)
}

func TestServiceListValidation(t *testing.T) {
	t.Parallel()

	_, err := New(&mockRepository{}).List(context.Background(), scope, ListParams{Limit: intPtr(0), Offset: intPtr(-1)})

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "pageId")
	require.Contains(t, validationErr.Fields, "limit")
	require.Contains(t, validationErr.Fields, "offset")
}

func TestServiceStatsWindows(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC)
	repo := &mockRepository{
		summarizeFn: func(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time) (persistence.HistorySummary, error) {
			require.Equal(t, now.Add(-30*24*time.Hour), since)
			return persistence.HistorySummary{TotalMessages: 3, PredefinedResponses: 1, AIResponses: 1, NoResponses: 1}, nil
		},
		dailyFn: func(ctx context.Context, tenantID uuid.UUID, pageID string, since time.Time) ([]persistence.DailyCount, error) {
			require.Equal(t, now.Add(-7*24*time.Hour), since)
			return []persistence.DailyCount{{Date: now.Truncate(24 * time.Hour), MessagesCount: 3}}, nil
		},
	}
	svc := &service{repo: repo, now: func() time.Time { return now }}

	stats, err := svc.Stats(context.Background(), scope, "1234")
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Summary.TotalMessages)
	require.Len(t, stats.Daily, 1)
}
