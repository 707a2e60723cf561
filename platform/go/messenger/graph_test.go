package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGraphSenderSend(t *testing.T) {
	t.Parallel()

	var gotPath, gotToken string
	var gotBody sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("access_token")
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"recipient_id":"u1","message_id":"m1"}`))
	}))
	t.Cleanup(srv.Close)

	sender := NewGraphSender(GraphConfig{BaseURL: srv.URL + "/", Timeout: time.Second})
	require.NoError(t, sender.Send(context.Background(), "1234", "u1", "Hi!", "tok&en"))

	require.Equal(t, "/v18.0/1234/messages", gotPath)
	require.Equal(t, "tok&en", gotToken)
	require.Equal(t, "u1", gotBody.Recipient.ID)
	require.Equal(t, "Hi!", gotBody.Message.Text)
}

func TestGraphSenderNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token."}}`))
	}))
	t.Cleanup(srv.Close)

	sender := NewGraphSender(GraphConfig{BaseURL: srv.URL, Version: "v19.0"})
	err := sender.Send(context.Background(), "1234", "u1", "Hi!", "bad")

	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	require.Equal(t, http.StatusBadRequest, sendErr.Status)
	require.Contains(t, sendErr.Body, "Invalid OAuth")
}

func TestGraphSenderTransportErrorHidesToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	sender := NewGraphSender(GraphConfig{BaseURL: base})
	err := sender.Send(context.Background(), "1234", "u1", "Hi!", "secret-token")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "secret-token")
}
