package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/pagebot/domains/webhook/be/router"
	"github.com/zenGate-Global/pagebot/platform/go/persistence"
)

type mockRepository struct {
	verifyTokenFn func(ctx context.Context, token string) (bool, error)
}

func (m *mockRepository) FindActivePage(context.Context, string) (persistence.Page, error) {
	panic("not used by the handler")
}

func (m *mockRepository) ListActiveRules(context.Context, uuid.UUID, string) ([]persistence.ResponseRule, error) {
	panic("not used by the handler")
}

func (m *mockRepository) GetActiveAIConfig(context.Context, uuid.UUID, string) (persistence.AIConfig, error) {
	panic("not used by the handler")
}

func (m *mockRepository) AppendHistory(context.Context, persistence.AppendHistoryParams) error {
	panic("not used by the handler")
}

func (m *mockRepository) VerifyTokenRegistered(ctx context.Context, token string) (bool, error) {
	if m.verifyTokenFn == nil {
		panic("verifyTokenFn not configured")
	}
	return m.verifyTokenFn(ctx, token)
}

type recordingProcessor struct {
	inbound []router.Inbound
}

func (p *recordingProcessor) Process(_ context.Context, in router.Inbound) (router.Decision, bool) {
	p.inbound = append(p.inbound, in)
	return router.Decision{Outcome: persistence.ResponseTypeNone}, true
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/webhook", h.Verify)
	r.Post("/api/v1/webhook", h.Receive)
	return r
}

func tokenRepo(valid string) *mockRepository {
	return &mockRepository{
		verifyTokenFn: func(ctx context.Context, token string) (bool, error) {
			return token == valid, nil
		},
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()

	h := newRouter(New(tokenRepo("secret-token"), &recordingProcessor{}, zaptest.NewLogger(t)))

	cases := []struct {
		name   string
		query  string
		status int
		body   string
	}{
		{"hub params", "hub.mode=subscribe&hub.challenge=123&hub.verify_token=secret-token", http.StatusOK, "123"},
		{"bare aliases", "mode=subscribe&challenge=abc&verify_token=secret-token", http.StatusOK, "abc"},
		{"wrong token", "hub.mode=subscribe&hub.challenge=123&hub.verify_token=nope", http.StatusForbidden, "Forbidden"},
		{"wrong mode", "hub.mode=unsubscribe&hub.challenge=123&hub.verify_token=secret-token", http.StatusForbidden, "Forbidden"},
		{"missing token", "hub.mode=subscribe&hub.challenge=123", http.StatusForbidden, "Forbidden"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/webhook?"+tc.query, nil))

			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.body, rec.Body.String())
		})
	}
}

func TestVerifyStoreError(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		verifyTokenFn: func(ctx context.Context, token string) (bool, error) {
			return false, errors.New("db down")
		},
	}

	rec := httptest.NewRecorder()
	newRouter(New(repo, &recordingProcessor{}, zaptest.NewLogger(t))).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/webhook?hub.mode=subscribe&hub.challenge=1&hub.verify_token=x", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReceiveRoutesTextMessages(t *testing.T) {
	t.Parallel()

	processor := &recordingProcessor{}
	body := `{
		"object": "page",
		"entry": [
			{"id": "1234", "time": 1700000000, "messaging": [
				{"sender": {"id": "u1"}, "recipient": {"id": "1234"}, "message": {"mid": "m1", "text": "hello there"}},
				{"sender": {"id": "u2"}, "recipient": {"id": "1234"}, "message": {"mid": "m2"}},
				{"sender": {"id": "u3"}, "recipient": {"id": "1234"}, "delivery": {"watermark": 1}}
			]},
			{"id": "5678", "messaging": [
				{"sender": {"id": "u4"}, "message": {"text": "hi"}}
			]}
		]
	}`

	rec := httptest.NewRecorder()
	newRouter(New(tokenRepo(""), processor, zaptest.NewLogger(t))).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/webhook", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "EVENT_RECEIVED", rec.Body.String())
	require.Equal(t, []router.Inbound{
		{PageID: "1234", SenderID: "u1", Text: "hello there"},
		{PageID: "5678", SenderID: "u4", Text: "hi"},
	}, processor.inbound)
}

func TestReceiveNonPageObjectAcknowledged(t *testing.T) {
	t.Parallel()

	processor := &recordingProcessor{}
	rec := httptest.NewRecorder()
	newRouter(New(tokenRepo(""), processor, zaptest.NewLogger(t))).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/webhook", strings.NewReader(`{"object":"instagram","entry":[]}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "EVENT_RECEIVED", rec.Body.String())
	require.Empty(t, processor.inbound)
}

func TestReceiveRejectsNonJSONBodies(t *testing.T) {
	t.Parallel()

	processor := &recordingProcessor{}
	h := newRouter(New(tokenRepo(""), processor, zaptest.NewLogger(t)))

	for _, body := range []string{``, `{not json`, `object=page`} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/webhook", strings.NewReader(body)))
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	require.Empty(t, processor.inbound)
}

func TestReceiveAcknowledgesOffSchemaPayloads(t *testing.T) {
	t.Parallel()

	processor := &recordingProcessor{}
	h := newRouter(New(tokenRepo(""), processor, zaptest.NewLogger(t)))

	for _, body := range []string{
		`{"entry": []}`,
		`{"object": "page", "entry": [{"id": 42}]}`,
		`[1, 2, 3]`,
		`{"object": "page", "entry": [
			{"messaging": [{"sender": {"id": "u1"}, "message": {"text": "no page id"}}]},
			{"id": "5678", "messaging": [{"sender": {}, "message": {"text": "no sender id"}}]},
			{"id": "5678", "messaging": [{"sender": {"id": "u4"}, "message": {"text": "hi"}}]}
		]}`,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/webhook", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code, body)
		require.Equal(t, "EVENT_RECEIVED", rec.Body.String(), body)
	}
	require.Equal(t, []router.Inbound{{PageID: "5678", SenderID: "u4", Text: "hi"}}, processor.inbound)
}
