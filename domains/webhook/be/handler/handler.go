package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	domainrepo "github.com/zenGate-Global/pagebot/domains/webhook/be/repo"
	"github.com/zenGate-Global/pagebot/domains/webhook/be/router"
	platformlogging "github.com/zenGate-Global/pagebot/platform/go/logging"
)

const (
	maxPayloadBytes = 1 << 20
	eventReceived   = "EVENT_RECEIVED"
	subscribeMode   = "subscribe"
)

// Processor routes one inbound message. *router.Router satisfies it.
type Processor interface {
	Process(ctx context.Context, in router.Inbound) (router.Decision, bool)
}

// Handler serves the Messenger webhook: subscription verification and event delivery.
type Handler struct {
	repo      domainrepo.Repository
	processor Processor
	validator *payloadValidator
	logger    *zap.Logger
}

// New constructs a Handler instance. It panics if the embedded schema does not compile.
func New(repo domainrepo.Repository, processor Processor, logger *zap.Logger) *Handler {
	if repo == nil {
		panic("webhook repository is required")
	}
	if processor == nil {
		panic("message processor is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	validator, err := newPayloadValidator()
	if err != nil {
		panic(err)
	}
	return &Handler{repo: repo, processor: processor, validator: validator, logger: logger}
}

// Verify handles GET /webhook. The challenge is echoed when the mode is subscribe and the
// token belongs to any tenant.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	mode := firstNonEmpty(query.Get("hub.mode"), query.Get("mode"))
	challenge := firstNonEmpty(query.Get("hub.challenge"), query.Get("challenge"))
	token := firstNonEmpty(query.Get("hub.verify_token"), query.Get("verify_token"))

	if mode != subscribeMode || token == "" {
		writeText(w, http.StatusForbidden, "Forbidden")
		return
	}

	registered, err := h.repo.VerifyTokenRegistered(ctx, token)
	if err != nil {
		h.loggerFrom(ctx).Error("webhook verification lookup failed", zap.Error(err))
		writeText(w, http.StatusInternalServerError, "Error")
		return
	}
	if !registered {
		h.loggerFrom(ctx).Warn("webhook verification rejected")
		writeText(w, http.StatusForbidden, "Forbidden")
		return
	}

	writeText(w, http.StatusOK, challenge)
}

// Receive handles POST /webhook. Once the body parses as JSON, delivery is always acknowledged;
// entries or messages missing required fields are skipped.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFrom(ctx)

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		logger.Warn("read webhook body failed", zap.Error(err))
		writeText(w, http.StatusBadRequest, "Bad Request")
		return
	}

	event, err := h.validator.decode(raw)
	if err != nil {
		if !errors.Is(err, errSchemaViolation) {
			logger.Warn("webhook payload rejected", zap.Error(err))
			writeText(w, http.StatusBadRequest, "Bad Request")
			return
		}
		logger.Warn("webhook payload does not match schema", zap.Error(err))
	}

	if event.Object != "page" {
		logger.Debug("non-page webhook object acknowledged", zap.String("object", event.Object))
		writeText(w, http.StatusOK, eventReceived)
		return
	}

	routed := 0
	for _, entry := range event.Entry {
		if entry.ID == "" {
			continue
		}
		for _, messaging := range entry.Messaging {
			if messaging.Message == nil || messaging.Message.Text == "" || messaging.Sender == nil || messaging.Sender.ID == "" {
				continue
			}
			if _, ok := h.processor.Process(ctx, router.Inbound{
				PageID:   entry.ID,
				SenderID: messaging.Sender.ID,
				Text:     messaging.Message.Text,
			}); ok {
				routed++
			}
		}
	}

	logger.Debug("webhook delivery processed", zap.Int("entries", len(event.Entry)), zap.Int("routed", routed))
	writeText(w, http.StatusOK, eventReceived)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, h.logger)
}
