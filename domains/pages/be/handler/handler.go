package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zenGate-Global/pagebot/domains/pages/be/service"
	"github.com/zenGate-Global/pagebot/platform/go/httpx"
	platformlogging "github.com/zenGate-Global/pagebot/platform/go/logging"
	"github.com/zenGate-Global/pagebot/platform/go/tenant"
)

type operation string

const (
	listOperation    operation = "listPages"
	connectOperation operation = "connectPage"
	toggleOperation  operation = "togglePage"
	deleteOperation  operation = "deletePage"
)

// Handler exposes the pages service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("pages service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

type pageResponse struct {
	ID        string    `json:"id"`
	PageID    string    `json:"pageId"`
	PageName  string    `json:"pageName"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type connectRequest struct {
	PageID      string `json:"pageId"`
	PageName    string `json:"pageName"`
	AccessToken string `json:"accessToken"`
}

type toggleRequest struct {
	IsActive *bool `json:"isActive"`
}

// ListPages handles GET /pages.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	pages, err := h.svc.List(ctx, scope)
	if err != nil {
		h.writeError(ctx, w, err, listOperation)
		return
	}

	items := make([]pageResponse, 0, len(pages))
	for _, page := range pages {
		items = append(items, toResponse(page))
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

// ConnectPage handles POST /pages/connect.
func (h *Handler) ConnectPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	var body connectRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeError(ctx, w, err, connectOperation)
		return
	}

	page, err := h.svc.Connect(ctx, scope, service.ConnectInput{
		PageID:      body.PageID,
		PageName:    body.PageName,
		AccessToken: body.AccessToken,
	})
	if err != nil {
		h.writeError(ctx, w, err, connectOperation)
		return
	}

	httpx.WriteSuccess(w, "Page connected", page.ID.String())
}

// TogglePage handles PUT /pages/{pageId}/toggle.
func (h *Handler) TogglePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	var body toggleRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeError(ctx, w, err, toggleOperation)
		return
	}
	if body.IsActive == nil {
		h.writeError(ctx, w, &service.ValidationError{Fields: service.FieldErrors{"isActive": {"isActive is required"}}}, toggleOperation)
		return
	}

	if err := h.svc.Toggle(ctx, scope, chi.URLParam(r, "pageId"), *body.IsActive); err != nil {
		h.writeError(ctx, w, err, toggleOperation)
		return
	}

	message := "Page deactivated"
	if *body.IsActive {
		message = "Page activated"
	}
	httpx.WriteSuccess(w, message, "")
}

// DeletePage handles DELETE /pages/{pageId}.
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	if err := h.svc.Delete(ctx, scope, chi.URLParam(r, "pageId")); err != nil {
		h.writeError(ctx, w, err, deleteOperation)
		return
	}

	httpx.WriteSuccess(w, "Page deleted", "")
}

func toResponse(page service.Page) pageResponse {
	return pageResponse{
		ID:        page.ID.String(),
		PageID:    page.PageID,
		PageName:  page.PageName,
		IsActive:  page.IsActive,
		CreatedAt: page.CreatedAt,
		UpdatedAt: page.UpdatedAt,
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
		logger.Error("pages operation failed", fields...)
	case status == http.StatusNotFound:
		logger.Info("page not found", fields...)
	default:
		logger.Warn("pages request rejected", fields...)
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
		return http.StatusNotFound, "Resource not found", "page not found", httpx.ProblemTypeNotFound, nil
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", httpx.ProblemTypeInternal, nil
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, h.logger)
}
