// Package router decides how an inbound page message is answered and records the outcome.
package router

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/pagebot/domains/responses/be/matching"
	domainrepo "github.com/zenGate-Global/pagebot/domains/webhook/be/repo"
	"github.com/zenGate-Global/pagebot/platform/go/ai"
	platformlogging "github.com/zenGate-Global/pagebot/platform/go/logging"
	"github.com/zenGate-Global/pagebot/platform/go/messenger"
	"github.com/zenGate-Global/pagebot/platform/go/metrics"
	"github.com/zenGate-Global/pagebot/platform/go/persistence"
)

// ApologyText replaces the AI reply when the provider call fails.
const ApologyText = "Sorry, I can't answer right now."

// outcomeIgnored labels messages for pages that are unknown or inactive.
const outcomeIgnored = "ignored"

// Recording and sending run detached from the inbound request so an expired request
// deadline or a dropped connection cannot lose the history record.
const (
	recordTimeout = 5 * time.Second
	sendTimeout   = 15 * time.Second
)

// PageKey identifies one tenant's connection of a page.
type PageKey struct {
	TenantID uuid.UUID
	PageID   string
}

// Decision is the routing result for one message. Response is nil for the none outcome.
type Decision struct {
	Outcome  persistence.ResponseType
	Response *string
	RuleID   uuid.UUID
	Provider string
}

// Inbound is one text message delivered by the webhook.
type Inbound struct {
	PageID   string
	SenderID string
	Text     string
}

// Generator produces AI replies. *ai.Registry satisfies it.
type Generator interface {
	Generate(ctx context.Context, req ai.Request) (string, error)
}

// Router answers inbound messages with a predefined rule, an AI reply, or nothing.
type Router struct {
	repo      domainrepo.Repository
	generator Generator
	sender    messenger.Sender
	logger    *zap.Logger
	now       func() time.Time
}

// New constructs a Router.
func New(repo domainrepo.Repository, generator Generator, sender messenger.Sender, logger *zap.Logger) *Router {
	if repo == nil {
		panic("webhook repository is required")
	}
	if generator == nil {
		panic("ai generator is required")
	}
	if sender == nil {
		panic("sender is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Router{repo: repo, generator: generator, sender: sender, logger: logger, now: time.Now}
}

// Route picks the reply for text. Store and provider failures degrade the decision and are
// logged; Route never fails.
func (r *Router) Route(ctx context.Context, key PageKey, text string) Decision {
	logger := r.loggerFrom(ctx)

	rules, err := r.repo.ListActiveRules(ctx, key.TenantID, key.PageID)
	if err != nil {
		logger.Error("list active rules failed", zap.String("page_id", key.PageID), zap.Error(err))
		rules = nil
	}
	if rule, ok := matching.SelectRule(rules, text); ok {
		response := rule.Response
		return Decision{Outcome: persistence.ResponseTypePredefined, Response: &response, RuleID: rule.RuleID}
	}

	cfg, err := r.repo.GetActiveAIConfig(ctx, key.TenantID, key.PageID)
	if err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			logger.Error("load ai config failed", zap.String("page_id", key.PageID), zap.Error(err))
		}
		return Decision{Outcome: persistence.ResponseTypeNone}
	}

	reply, err := r.generator.Generate(ctx, ai.RequestFor(cfg, text))
	if err != nil {
		logger.Warn("ai reply failed",
			zap.String("page_id", key.PageID),
			zap.String("provider", cfg.Provider),
			zap.Error(err),
		)
		reply = ApologyText
	}
	if strings.TrimSpace(reply) == "" {
		reply = ApologyText
	}

	return Decision{Outcome: persistence.ResponseTypeAI, Response: &reply, Provider: cfg.Provider}
}

// Process routes one webhook message: it resolves the active page, routes, appends the
// history record and forwards any reply. Messages for unknown or inactive pages are dropped
// without a record. The boolean reports whether the message was routed.
func (r *Router) Process(ctx context.Context, in Inbound) (Decision, bool) {
	logger := r.loggerFrom(ctx).With(zap.String("page_id", in.PageID), zap.String("sender_id", in.SenderID))

	page, err := r.repo.FindActivePage(ctx, in.PageID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			logger.Debug("message for unknown or inactive page ignored")
		} else {
			logger.Error("resolve page failed", zap.Error(err))
		}
		metrics.ObserveRouted(outcomeIgnored)
		return Decision{}, false
	}

	decision := r.Route(ctx, PageKey{TenantID: page.TenantID, PageID: page.PageID}, in.Text)
	metrics.ObserveRouted(string(decision.Outcome))

	recordCtx, cancelRecord := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	err = r.repo.AppendHistory(recordCtx, persistence.AppendHistoryParams{
		MessageID:    uuid.New(),
		TenantID:     page.TenantID,
		PageID:       page.PageID,
		SenderID:     in.SenderID,
		MessageText:  in.Text,
		ResponseText: decision.Response,
		ResponseType: decision.Outcome,
		ProcessedAt:  r.now().UTC(),
	})
	cancelRecord()
	if err != nil {
		logger.Error("append history failed", zap.Error(err))
	}

	if decision.Response != nil {
		sendCtx, cancelSend := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		sendErr := r.sender.Send(sendCtx, page.PageID, in.SenderID, *decision.Response, page.AccessToken)
		cancelSend()
		metrics.ObserveSend(sendErr)
		if sendErr != nil {
			logger.Warn("send reply failed", zap.Error(sendErr))
		}
	}

	logger.Info("message routed", zap.String("outcome", string(decision.Outcome)))
	return decision, true
}

func (r *Router) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, r.logger)
}
