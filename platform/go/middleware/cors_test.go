package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCORSPreflight(t *testing.T) {
	t.Parallel()

	called := false
	handler := DefaultCORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/responses/abc", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.False(t, called)
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
}
