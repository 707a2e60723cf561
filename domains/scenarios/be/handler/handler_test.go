package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/pagebot/domains/scenarios/be/service"
	"github.com/zenGate-Global/pagebot/platform/go/tenant"
)

type mockService struct {
	listFn   func(ctx context.Context, scope tenant.Scope, pageID string) ([]service.Scenario, error)
	createFn func(ctx context.Context, scope tenant.Scope, input service.Input) (service.Scenario, error)
	updateFn func(ctx context.Context, scope tenant.Scope, id uuid.UUID, input service.Input) (service.Scenario, error)
	deleteFn func(ctx context.Context, scope tenant.Scope, id uuid.UUID) error
}

func (m *mockService) List(ctx context.Context, scope tenant.Scope, pageID string) ([]service.Scenario, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, scope, pageID)
}

func (m *mockService) Create(ctx context.Context, scope tenant.Scope, input service.Input) (service.Scenario, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, scope, input)
}

func (m *mockService) Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, input service.Input) (service.Scenario, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, scope, id, input)
}

func (m *mockService) Delete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, scope, id)
}

var scope = tenant.Scope{TenantID: uuid.MustParse("5d3c2a8e-7c1b-4f55-9d0e-2a4b6c8d0e1f")}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(tenant.WithScope(req.Context(), scope)))
		})
	})
	r.Get("/api/v1/scenarios/{pageId}", h.ListScenarios)
	r.Post("/api/v1/scenarios", h.CreateScenario)
	r.Put("/api/v1/scenarios/{id}", h.UpdateScenario)
	r.Delete("/api/v1/scenarios/{id}", h.DeleteScenario)
	return r
}

func TestHandlerListScenarios(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		listFn: func(ctx context.Context, _ tenant.Scope, pageID string) ([]service.Scenario, error) {
			return []service.Scenario{{ID: uuid.New(), PageID: pageID, Name: "Welcome", TriggerType: "new_message", ActionType: "predefined", IsActive: true}}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(New(svc, zaptest.NewLogger(t))).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scenarios/1234", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"name":"Welcome"`)
	require.Contains(t, rec.Body.String(), `"triggerType":"new_message"`)
}

func TestHandlerCreateScenario(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{
		createFn: func(ctx context.Context, _ tenant.Scope, input service.Input) (service.Scenario, error) {
			require.Equal(t, "1234", input.PageID)
			require.Equal(t, "Welcome", input.Name)
			require.NotNil(t, input.IsActive)
			require.False(t, *input.IsActive)
			return service.Scenario{ID: id}, nil
		},
	}

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"pageId":"1234","name":"Welcome","isActive":false}`)
	newRouter(New(svc, zaptest.NewLogger(t))).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/scenarios", body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"message":"Scenario created","id":"`+id.String()+`"}`, rec.Body.String())
}

func TestHandlerUpdateScenarioNotFound(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		updateFn: func(ctx context.Context, _ tenant.Scope, id uuid.UUID, input service.Input) (service.Scenario, error) {
			return service.Scenario{}, service.ErrNotFound
		},
	}

	rec := httptest.NewRecorder()
	newRouter(New(svc, zaptest.NewLogger(t))).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/scenarios/"+uuid.NewString(), strings.NewReader(`{"name":"x"}`)))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "scenario not found")
}

func TestHandlerDeleteScenario(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{
		deleteFn: func(ctx context.Context, _ tenant.Scope, got uuid.UUID) error {
			require.Equal(t, id, got)
			return nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(New(svc, zaptest.NewLogger(t))).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/scenarios/"+id.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":true`)
}
