package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zenGate-Global/pagebot/domains/aiconfig/be/service"
	"github.com/zenGate-Global/pagebot/platform/go/httpx"
	platformlogging "github.com/zenGate-Global/pagebot/platform/go/logging"
	"github.com/zenGate-Global/pagebot/platform/go/tenant"
)

type operation string

const (
	getOperation    operation = "getAIConfig"
	upsertOperation operation = "saveAIConfig"
	testOperation   operation = "testAI"
)

// Handler exposes the AI configuration service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("ai config service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

type configResponse struct {
	ID           string    `json:"id"`
	PageID       string    `json:"pageId"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Temperature  float64   `json:"temperature"`
	Instructions *string   `json:"instructions"`
	Tone         *string   `json:"tone"`
	Style        *string   `json:"style"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type upsertRequest struct {
	PageID       string   `json:"pageId"`
	Provider     string   `json:"provider"`
	APIKey       string   `json:"apiKey"`
	Model        string   `json:"model"`
	Temperature  *float64 `json:"temperature"`
	Instructions *string  `json:"instructions"`
	Tone         *string  `json:"tone"`
	Style        *string  `json:"style"`
	IsActive     *bool    `json:"isActive"`
}

type testRequest struct {
	PageID      string `json:"pageId"`
	TestMessage string `json:"testMessage"`
}

type testResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// GetAIConfig handles GET /ai-config/{pageId}. A page without configuration yields null.
func (h *Handler) GetAIConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	cfg, err := h.svc.Get(ctx, scope, chi.URLParam(r, "pageId"))
	if err != nil {
		h.writeError(ctx, w, err, getOperation)
		return
	}
	if cfg == nil {
		httpx.WriteJSON(w, http.StatusOK, nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, configResponse{
		ID:           cfg.ID.String(),
		PageID:       cfg.PageID,
		Provider:     cfg.Provider,
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		Instructions: cfg.Instructions,
		Tone:         cfg.Tone,
		Style:        cfg.Style,
		IsActive:     cfg.IsActive,
		CreatedAt:    cfg.CreatedAt,
		UpdatedAt:    cfg.UpdatedAt,
	})
}

// SaveAIConfig handles POST /ai-config.
func (h *Handler) SaveAIConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	var body upsertRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeError(ctx, w, err, upsertOperation)
		return
	}

	cfg, err := h.svc.Upsert(ctx, scope, service.UpsertInput{
		PageID:       body.PageID,
		Provider:     body.Provider,
		APIKey:       body.APIKey,
		Model:        body.Model,
		Temperature:  body.Temperature,
		Instructions: body.Instructions,
		Tone:         body.Tone,
		Style:        body.Style,
		IsActive:     body.IsActive,
	})
	if err != nil {
		h.writeError(ctx, w, err, upsertOperation)
		return
	}

	httpx.WriteSuccess(w, "AI configuration saved", cfg.ID.String())
}

// TestAI handles POST /test/ai.
func (h *Handler) TestAI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	var body testRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeError(ctx, w, err, testOperation)
		return
	}

	result, err := h.svc.Test(ctx, scope, body.PageID, body.TestMessage)
	if err != nil {
		h.writeError(ctx, w, err, testOperation)
		return
	}
	if result.Error != "" {
		h.loggerFrom(ctx).Warn("ai test generation failed",
			zap.String("provider", result.Provider),
			zap.String("error", result.Error),
		)
	}

	httpx.WriteJSON(w, http.StatusOK, testResponse(result))
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, op operation) {
	status, title, detail, problemType, fieldErrors := h.classifyError(err)

	logger := h.loggerFrom(ctx)
	fields := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", status),
		zap.Error(err),
	}

	if status >= http.StatusInternalServerError {
		logger.Error("ai config operation failed", fields...)
	} else {
		logger.Warn("ai config request rejected", fields...)
	}

	httpx.WriteProblem(w, httpx.NewProblem(status, problemType, title, detail, fieldErrors))
}

func (h *Handler) classifyError(err error) (status int, title, detail, problemType string, fieldErrors service.FieldErrors) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "Validation failed", "one or more fields are invalid", httpx.ProblemTypeValidation, validationErr.Fields
	case errors.Is(err, httpx.ErrInvalidBody):
		return http.StatusBadRequest, "Invalid request body", "request body must be valid JSON", httpx.ProblemTypeValidation, nil
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", httpx.ProblemTypeInternal, nil
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, h.logger)
}
