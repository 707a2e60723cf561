package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/pagebot/domains/scenarios/be/service"
	"github.com/zenGate-Global/pagebot/platform/go/httpx"
	platformlogging "github.com/zenGate-Global/pagebot/platform/go/logging"
	"github.com/zenGate-Global/pagebot/platform/go/tenant"
)

type operation string

const (
	listOperation   operation = "listScenarios"
	createOperation operation = "createScenario"
	updateOperation operation = "updateScenario"
	deleteOperation operation = "deleteScenario"
)

// Handler exposes the scenarios service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("scenarios service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

type scenarioResponse struct {
	ID           string    `json:"id"`
	PageID       string    `json:"pageId"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	TriggerType  string    `json:"triggerType"`
	TriggerValue *string   `json:"triggerValue"`
	ActionType   string    `json:"actionType"`
	ActionValue  *string   `json:"actionValue"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type scenarioRequest struct {
	PageID       string  `json:"pageId"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	TriggerType  string  `json:"triggerType"`
	TriggerValue *string `json:"triggerValue"`
	ActionType   string  `json:"actionType"`
	ActionValue  *string `json:"actionValue"`
	IsActive     *bool   `json:"isActive"`
}

func (b scenarioRequest) input() service.Input {
	return service.Input(b)
}

// ListScenarios handles GET /scenarios/{pageId}.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	scenarios, err := h.svc.List(ctx, scope, chi.URLParam(r, "pageId"))
	if err != nil {
		h.writeError(ctx, w, err, listOperation)
		return
	}

	items := make([]scenarioResponse, 0, len(scenarios))
	for _, sc := range scenarios {
		items = append(items, scenarioResponse{
			ID:           sc.ID.String(),
			PageID:       sc.PageID,
			Name:         sc.Name,
			Description:  sc.Description,
			TriggerType:  sc.TriggerType,
			TriggerValue: sc.TriggerValue,
			ActionType:   sc.ActionType,
			ActionValue:  sc.ActionValue,
			IsActive:     sc.IsActive,
			CreatedAt:    sc.CreatedAt,
			UpdatedAt:    sc.UpdatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

// CreateScenario handles POST /scenarios.
func (h *Handler) CreateScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	var body scenarioRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeError(ctx, w, err, createOperation)
		return
	}

	sc, err := h.svc.Create(ctx, scope, body.input())
	if err != nil {
		h.writeError(ctx, w, err, createOperation)
		return
	}

	httpx.WriteSuccess(w, "Scenario created", sc.ID.String())
}

// UpdateScenario handles PUT /scenarios/{id}.
func (h *Handler) UpdateScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	var body scenarioRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeError(ctx, w, err, updateOperation)
		return
	}

	if _, err := h.svc.Update(ctx, scope, parseID(r), body.input()); err != nil {
		h.writeError(ctx, w, err, updateOperation)
		return
	}

	httpx.WriteSuccess(w, "Scenario updated", "")
}

// DeleteScenario handles DELETE /scenarios/{id}.
func (h *Handler) DeleteScenario(w http.ResponseWriter, r *http.Request) {
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

	httpx.WriteSuccess(w, "Scenario deleted", "")
}

func parseID(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil
	}
	return id
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
		logger.Error("scenarios operation failed", fields...)
	case status == http.StatusNotFound:
		logger.Info("scenario not found", fields...)
	default:
		logger.Warn("scenarios request rejected", fields...)
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
		return http.StatusNotFound, "Resource not found", "scenario not found", httpx.ProblemTypeNotFound, nil
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", httpx.ProblemTypeInternal, nil
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, h.logger)
}
