package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerSeverity(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewLogger(Config{Component: "pagebot-api", Level: "WARN", Output: &buf})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", zap.String("page_id", "p1"))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "WARNING", entry["severity"])
	require.Equal(t, "kept", entry["message"])
	require.Equal(t, "pagebot-api", entry["component"])
	require.Equal(t, "p1", entry["page_id"])
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := NewLogger(Config{Level: "loud"})
	require.Error(t, err)
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	router := chi.NewRouter()
	router.Use(RequestLogger(base))
	router.Get("/api/v1/pages/{pageId}", func(w http.ResponseWriter, r *http.Request) {
		_, ok := FromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusTeapot)
	})
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/pages/123", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.EqualValues(t, http.StatusTeapot, first["status"])
	require.Equal(t, "/api/v1/pages/{pageId}", first["route"])

	require.Equal(t, zapcore.DebugLevel, entries[1].Level)
}
