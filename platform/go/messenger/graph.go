// Package messenger delivers replies through the Facebook Graph Send API.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultGraphBaseURL = "https://graph.facebook.com"
	DefaultGraphVersion = "v18.0"
)

// Sender forwards a reply to a user of a page.
type Sender interface {
	Send(ctx context.Context, pageID, recipientID, text, accessToken string) error
}

// SendError is returned for non-2xx Graph responses.
type SendError struct {
	Status int
	Body   string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("graph send failed: status %d: %s", e.Status, e.Body)
}

// GraphConfig configures the Graph endpoint.
type GraphConfig struct {
	BaseURL string
	Version string
	Timeout time.Duration
}

// GraphSender posts messages to {base}/{version}/{pageId}/messages.
type GraphSender struct {
	baseURL string
	version string
	client  *http.Client
}

func NewGraphSender(cfg GraphConfig) *GraphSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGraphBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultGraphVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &GraphSender{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		version: cfg.Version,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type sendRequest struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

func (s *GraphSender) Send(ctx context.Context, pageID, recipientID, text, accessToken string) error {
	var payload sendRequest
	payload.Recipient.ID = recipientID
	payload.Message.Text = text

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode send payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/messages?access_token=%s",
		s.baseURL, s.version, url.PathEscape(pageID), url.QueryEscape(accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// The URL carries the page token; keep it out of logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return fmt.Errorf("graph send: %w", urlErr.Err)
		}
		return fmt.Errorf("graph send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &SendError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

var _ Sender = (*GraphSender)(nil)
