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
	listFn      func(ctx context.Context, tenantID uuid.UUID) ([]persistence.Page, error)
	connectFn   func(ctx context.Context, params persistence.ConnectPageParams) (persistence.Page, error)
	setActiveFn func(ctx context.Context, tenantID uuid.UUID, pageID string, active bool) error
	deleteFn    func(ctx context.Context, tenantID uuid.UUID, pageID string) error
}

func (m *mockRepository) List(ctx context.Context, tenantID uuid.UUID) ([]persistence.Page, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, tenantID)
}

func (m *mockRepository) Connect(ctx context.Context, params persistence.ConnectPageParams) (persistence.Page, error) {
	if m.connectFn == nil {
		panic("connectFn not configured")
	}
	return m.connectFn(ctx, params)
}

func (m *mockRepository) SetActive(ctx context.Context, tenantID uuid.UUID, pageID string, active bool) error {
	if m.setActiveFn == nil {
		panic("setActiveFn not configured")
	}
	return m.setActiveFn(ctx, tenantID, pageID, active)
}

func (m *mockRepository) Delete(ctx context.Context, tenantID uuid.UUID, pageID string) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, tenantID, pageID)
}

var scope = tenant.Scope{TenantID: uuid.MustParse("5d3c2a8e-7c1b-4f55-9d0e-2a4b6c8d0e1f"), Username: "owner"}

func TestServiceConnect(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	repo := &mockRepository{}
	repo.connectFn = func(ctx context.Context, params persistence.ConnectPageParams) (persistence.Page, error) {
		require.Equal(t, scope.TenantID, params.TenantID)
		require.Equal(t, "1234", params.PageID)
		require.Equal(t, "My Shop", params.PageName)
		require.Equal(t, "EAAB", params.AccessToken)
		return persistence.Page{PageUID: params.PageUID, TenantID: params.TenantID, PageID: params.PageID, PageName: params.PageName, IsActive: true, CreatedAt: now}, nil
	}

	page, err := New(repo).Connect(context.Background(), scope, ConnectInput{PageID: " 1234 ", PageName: "My Shop", AccessToken: "EAAB"})
	require.NoError(t, err)
	require.True(t, page.IsActive)
	require.Equal(t, "1234", page.PageID)
}

func TestServiceConnectValidation(t *testing.T) {
	t.Parallel()

	_, err := New(&mockRepository{}).Connect(context.Background(), scope, ConnectInput{})

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "pageId")
	require.Contains(t, validationErr.Fields, "pageName")
	require.Contains(t, validationErr.Fields, "accessToken")
}

func TestServiceToggleAndDeleteNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		setActiveFn: func(ctx context.Context, tenantID uuid.UUID, pageID string, active bool) error {
			require.Equal(t, scope.TenantID, tenantID)
			require.False(t, active)
			return persistence.ErrNotFound
		},
		deleteFn: func(ctx context.Context, tenantID uuid.UUID, pageID string) error {
			return persistence.ErrNotFound
		},
	}
	svc := New(repo)

	require.ErrorIs(t, svc.Toggle(context.Background(), scope, "other-tenant-page", false), ErrNotFound)
	require.ErrorIs(t, svc.Delete(context.Background(), scope, "other-tenant-page"), ErrNotFound)
	require.ErrorIs(t, svc.Delete(context.Background(), scope, "  "), ErrNotFound)
}

func TestServiceList(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		listFn: func(ctx context.Context, tenantID uuid.UUID) ([]persistence.Page, error) {
			return []persistence.Page{{PageID: "1", AccessToken: "secret"}, {PageID: "2"}}, nil
		},
	}

	pages, err := New(repo).List(context.Background(), scope)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Equal(t, "1", pages[0].PageID)
}
