package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	platformauth "github.com/zenGate-Global/pagebot/platform/go/auth"
	"github.com/zenGate-Global/pagebot/platform/go/auth/devtoken"
	"github.com/zenGate-Global/pagebot/platform/go/requesttrace"
)

// header.{"sub":"user-123"}.
const tenantlessToken = "header.eyJzdWIiOiJ1c2VyLTEyMyJ9."

// header.{"sub":"user-123","tenantId":"tenant-acme"}.
const malformedTenantToken = "header.eyJzdWIiOiJ1c2VyLTEyMyIsInRlbmFudElkIjoidGVuYW50LWFjbWUifQ."

func newTraceRouter(t *testing.T, want requesttrace.ActorKind) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(platformauth.Bearer(platformauth.DevVerifier()))
	r.Use(RequestTrace)

	handler := func(w http.ResponseWriter, req *http.Request) {
		audit, ok := requesttrace.FromContext(req.Context())
		require.True(t, ok)
		require.Equal(t, want, audit.ActorKind)
		require.NotEmpty(t, audit.RequestID)
		w.WriteHeader(http.StatusOK)
	}
	r.Get("/test", handler)
	r.Post("/api/v1/webhook", handler)
	return r
}

func TestRequestTraceWithTenantToken(t *testing.T) {
	token, err := devtoken.BuildUnsignedToken(devtoken.Params{TenantID: uuid.NewString(), Email: "owner@example.com"}, time.Time{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp := httptest.NewRecorder()
	newTraceRouter(t, requesttrace.ActorKindTenant).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
}

func TestRequestTraceRejectsTenantlessToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tenantlessToken)

	resp := httptest.NewRecorder()
	newTraceRouter(t, requesttrace.ActorKindTenant).ServeHTTP(resp, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRequestTraceRejectsMalformedTenant(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+malformedTenantToken)

	resp := httptest.NewRecorder()
	newTraceRouter(t, requesttrace.ActorKindTenant).ServeHTTP(resp, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRequestTraceWebhookAndAnonymous(t *testing.T) {
	resp := httptest.NewRecorder()
	newTraceRouter(t, requesttrace.ActorKindWebhook).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/webhook", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	newTraceRouter(t, requesttrace.ActorKindAnonymous).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, resp.Code)
}
