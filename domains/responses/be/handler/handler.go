package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/pagebot/domains/responses/be/service"
	"github.com/zenGate-Global/pagebot/platform/go/httpx"
	platformlogging "github.com/zenGate-Global/pagebot/platform/go/logging"
	"github.com/zenGate-Global/pagebot/platform/go/tenant"
)

type operation string

const (
	listOperation   operation = "listResponses"
	createOperation operation = "createResponse"
	updateOperation operation = "updateResponse"
	deleteOperation operation = "deleteResponse"
	testOperation   operation = "testPredefined"
)

// Handler exposes the responses service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("responses service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

type ruleResponse struct {
	ID        string    `json:"id"`
	PageID    string    `json:"pageId"`
	Keyword   string    `json:"keyword"`
	Response  string    `json:"response"`
	Priority  int       `json:"priority"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ruleRequest struct {
	PageID   string `json:"pageId"`
	Keyword  string `json:"keyword"`
	Response string `json:"response"`
	Priority *int   `json:"priority"`
	IsActive *bool  `json:"isActive"`
}

type testRequest struct {
	PageID      string `json:"pageId"`
	TestMessage string `json:"testMessage"`
}

type testResponse struct {
	Found    bool   `json:"found"`
	Keyword  string `json:"keyword,omitempty"`
	Response string `json:"response,omitempty"`
	Priority *int   `json:"priority,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ListResponses handles GET /responses/{pageId}.
func (h *Handler) ListResponses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	rules, err := h.svc.List(ctx, scope, chi.URLParam(r, "pageId"))
	if err != nil {
		h.writeError(ctx, w, err, listOperation)
		return
	}

	items := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		items = append(items, toResponse(rule))
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

// CreateResponse handles POST /responses.
func (h *Handler) CreateResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	var body ruleRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeError(ctx, w, err, createOperation)
		return
	}

	rule, err := h.svc.Create(ctx, scope, service.CreateInput{
		PageID:   body.PageID,
		Keyword:  body.Keyword,
		Response: body.Response,
		Priority: body.Priority,
		IsActive: body.IsActive,
	})
	if err != nil {
		h.writeError(ctx, w, err, createOperation)
		return
	}

	httpx.WriteSuccess(w, "Response created", rule.ID.String())
}

// UpdateResponse handles PUT /responses/{id}.
func (h *Handler) UpdateResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	var body ruleRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeError(ctx, w, err, updateOperation)
		return
	}

	_, err := h.svc.Update(ctx, scope, parseID(r), service.UpdateInput{
		Keyword:  body.Keyword,
		Response: body.Response,
		Priority: body.Priority,
		IsActive: body.IsActive,
	})
	if err != nil {
		h.writeError(ctx, w, err, updateOperation)
		return
	}

	httpx.WriteSuccess(w, "Response updated", "")
}

// DeleteResponse handles DELETE /responses/{id}.
func (h *Handler) DeleteResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	if err := h.svc.Delete(ctx, scope, parseID(r)); err != nil {
		h.writeError(ctx, w, err, deleteOperation)
		return
	}

	httpx.WriteSuccess(w, "Response deleted", "")
}

// TestPredefined handles POST /test/predefined.
func (h *Handler) TestPredefined(w http.ResponseWriter, r *http.Request) {
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

	if !result.Found {
		httpx.WriteJSON(w, http.StatusOK, testResponse{Found: false, Message: "No predefined response matches this message"})
		return
	}

	priority := result.Rule.Priority
	httpx.WriteJSON(w, http.StatusOK, testResponse{
		Found:    true,
		Keyword:  result.Rule.Keyword,
		Response: result.Rule.Response,
		Priority: &priority,
	})
}

// parseID returns uuid.Nil for malformed ids, which the service reports as not found.
func parseID(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func toResponse(rule service.Rule) ruleResponse {
	return ruleResponse{
		ID:        rule.ID.String(),
		PageID:    rule.PageID,
		Keyword:   rule.Keyword,
		Response:  rule.Response,
		Priority:  rule.Priority,
		IsActive:  rule.IsActive,
		CreatedAt: rule.CreatedAt,
		UpdatedAt: rule.UpdatedAt,
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, op operation) {
	status, title, detail, problemType, fieldErrors := h.classifyError(err)

	logger := h.loggerFrom(ctx)
	fields := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", status),
		zap.Error(err),
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("responses operation failed", fields...)
	case status == http.StatusNotFound:
		logger.Info("response rule not found", fields...)
	default:
		logger.Warn("responses request rejected", fields...)
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
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Resource not found", "response rule not found", httpx.ProblemTypeNotFound, nil
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", httpx.ProblemTypeInternal, nil
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, h.logger)
}
