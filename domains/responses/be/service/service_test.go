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
	listFn       func(ctx context.Context, tenantID uuid.UUID, pageID string) ([]persistence.ResponseRule, error)
	listActiveFn func(ctx context.Context, tenantID uuid.UUID, pageID string) ([]persistence.ResponseRule, error)
	createFn     func(ctx context.Context, params persistence.CreateRuleParams) (persistence.ResponseRule, error)
	updateFn     func(ctx context.Context, tenantID, ruleID uuid.UUID, params persistence.UpdateRuleParams) (persistence.ResponseRule, error)
	deleteFn     func(ctx context.Context, tenantID, ruleID uuid.UUID) error
}

func (m *mockRepository) List(ctx context.Context, tenantID uuid.UUID, pageID string) ([]persistence.ResponseRule, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, tenantID, pageID)
}

func (m *mockRepository) ListActive(ctx context.Context, tenantID uuid.UUID, pageID string) ([]persistence.ResponseRule, error) {
	if m.listActiveFn == nil {
		panic("listActiveFn not configured")
	}
	return m.listActiveFn(ctx, tenantID, pageID)
}

func (m *mockRepository) Create(ctx context.Context, params persistence.CreateRuleParams) (persistence.ResponseRule, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, params)
}

func (m *mockRepository) Update(ctx context.Context, tenantID, ruleID uuid.UUID, params persistence.UpdateRuleParams) (persistence.ResponseRule, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, tenantID, ruleID, params)
}

func (m *mockRepository) Delete(ctx context.Context, tenantID, ruleID uuid.UUID) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, tenantID, ruleID)
}

var scope = tenant.Scope{TenantID: uuid.MustParse("5d3c2a8e-7c1b-4f55-9d0e-2a4b6c8d0e1f"), Username: "owner"}

func TestServiceCreateDefaults(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		createFn: func(ctx context.Context, params persistence.CreateRuleParams) (persistence.ResponseRule, error) {
			require.NotEqual(t, uuid.Nil, params.RuleID)
			require.Equal(t, scope.TenantID, params.TenantID)
			require.Equal(t, "1234", params.PageID)
			require.Equal(t, "hello", params.Keyword)
			require.Equal(t, DefaultPriority, params.Priority)
			require.True(t, params.IsActive)
			return persistence.ResponseRule{RuleID: params.RuleID, PageID: params.PageID, Keyword: params.Keyword, Response: params.Response, Priority: params.Priority, IsActive: params.IsActive}, nil
		},
	}

	rule, err := New(repo).Create(context.Background(), scope, CreateInput{PageID: "1234", Keyword: " hello ", Response: "Hi!"})
	require.NoError(t, err)
	require.Equal(t, "Hi!", rule.Response)
	require.Equal(t, 1, rule.Priority)
}

func TestServiceCreateValidation(t *testing.T) {
	t.Parallel()

	_, err := New(&mockRepository{}).Create(context.Background(), scope, CreateInput{})

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "pageId")
	require.Contains(t, validationErr.Fields, "keyword")
	require.Contains(t, validationErr.Fields, "response")
}

func TestServiceCreateAcceptsNegativePriority(t *testing.T) {
	t.Parallel()

	negative := -3
	repo := &mockRepository{
		createFn: func(ctx context.Context, params persistence.CreateRuleParams) (persistence.ResponseRule, error) {
			require.Equal(t, -3, params.Priority)
			return persistence.ResponseRule{RuleID: params.RuleID, PageID: params.PageID, Keyword: params.Keyword, Response: params.Response, Priority: params.Priority, IsActive: params.IsActive}, nil
		},
	}

	rule, err := New(repo).Create(context.Background(), scope, CreateInput{PageID: "1234", Keyword: "late", Response: "fallback", Priority: &negative})
	require.NoError(t, err)
	require.Equal(t, -3, rule.Priority)
}

func TestServiceCreateUnconnectedPage(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		createFn: func(ctx context.Context, params persistence.CreateRuleParams) (persistence.ResponseRule, error) {
			return persistence.ResponseRule{}, persistence.ErrPageNotConnected
		},
	}

	_, err := New(repo).Create(context.Background(), scope, CreateInput{PageID: "someone-else", Keyword: "a", Response: "b"})

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, []string{"page is not connected"}, validationErr.Fields["pageId"])
}

func TestServiceUpdate(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	priority := 7
	inactive := false
	repo := &mockRepository{
		updateFn: func(ctx context.Context, tenantID, ruleID uuid.UUID, params persistence.UpdateRuleParams) (persistence.ResponseRule, error) {
			require.Equal(t, scope.TenantID, tenantID)
			if ruleID != id {
				return persistence.ResponseRule{}, persistence.ErrNotFound
			}
			require.Equal(t, 7, params.Priority)
			require.False(t, params.IsActive)
			return persistence.ResponseRule{RuleID: ruleID, Priority: params.Priority}, nil
		},
	}
	svc := New(repo)

	rule, err := svc.Update(context.Background(), scope, id, UpdateInput{Keyword: "k", Response: "r", Priority: &priority, IsActive: &inactive})
	require.NoError(t, err)
	require.Equal(t, 7, rule.Priority)

	_, err = svc.Update(context.Background(), scope, uuid.New(), UpdateInput{Keyword: "k", Response: "r"})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(context.Background(), scope, uuid.Nil, UpdateInput{Keyword: "k", Response: "r"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceDelete(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		deleteFn: func(ctx context.Context, tenantID, ruleID uuid.UUID) error {
			return persistence.ErrNotFound
		},
	}

	require.ErrorIs(t, New(repo).Delete(context.Background(), scope, uuid.New()), ErrNotFound)
}

func TestServiceTestMatchesHighestPriority(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &mockRepository{
		listActiveFn: func(ctx context.Context, tenantID uuid.UUID, pageID string) ([]persistence.ResponseRule, error) {
			require.Equal(t, "1234", pageID)
			return []persistence.ResponseRule{
				{RuleID: uuid.New(), Keyword: "a", Response: "low", Priority: 1, IsActive: true, CreatedAt: now},
				{RuleID: uuid.New(), Keyword: "ab", Response: "high", Priority: 9, IsActive: true, CreatedAt: now},
			}, nil
		},
	}
	svc := New(repo)

	result, err := svc.Test(context.Background(), scope, "1234", "xyz ab")
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Equal(t, "high", result.Rule.Response)
	require.Equal(t, 9, result.Rule.Priority)

	result, err = svc.Test(context.Background(), scope, "1234", "nothing here")
	require.NoError(t, err)
	require.False(t, result.Found)
}

func TestServiceTestValidation(t *testing.T) {
	t.Parallel()

	_, err := New(&mockRepository{}).Test(context.Background(), scope, "", " ")

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "pageId")
	require.Contains(t, validationErr.Fields, "testMessage")
}
