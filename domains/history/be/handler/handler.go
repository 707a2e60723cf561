package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/zenGate-Global/pagebot/domains/history/be/service"
	"github.com/zenGate-Global/pagebot/platform/go/httpx"
	platformlogging "github.com/zenGate-Global/pagebot/platform/go/logging"
	"github.com/zenGate-Global/pagebot/platform/go/persistence"
	"github.com/zenGate-Global/pagebot/platform/go/tenant"
)

type operation string

const (
	listOperation  operation = "listHistory"
	statsOperation operation = "getStats"
)

// Handler exposes message history and statistics over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("history service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

type summaryResponse struct {
	TotalMessages       int64 `json:"totalMessages"`
	PredefinedResponses int64 `json:"predefinedResponses"`
	AIResponses         int64 `json:"aiResponses"`
	NoResponses         int64 `json:"noResponses"`
}

type dailyResponse struct {
	Date          string `json:"date"`
	MessagesCount int64  `json:"messagesCount"`
}

type statsResponse struct {
	Summary summaryResponse `json:"summary"`
	Daily   []dailyResponse `json:"daily"`
}

// ListHistory handles GET /history/{pageId}?limit&offset.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	params := service.ListParams{PageID: chi.URLParam(r, "pageId")}
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit); err != nil {
		h.writeError(ctx, w, &service.ValidationError{Fields: service.FieldErrors{"limit": {"limit must be an integer"}}}, listOperation)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", query, &params.Offset); err != nil {
		h.writeError(ctx, w, &service.ValidationError{Fields: service.FieldErrors{"offset": {"offset must be an integer"}}}, listOperation)
		return
	}

	records, err := h.svc.List(ctx, scope, params)
	if err != nil {
		h.writeError(ctx, w, err, listOperation)
		return
	}
	if records == nil {
		records = []persistence.HistoryRecord{}
	}

	httpx.WriteJSON(w, http.StatusOK, records)
}

// GetStats handles GET /stats/{pageId}.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	stats, err := h.svc.Stats(ctx, scope, chi.URLParam(r, "pageId"))
	if err != nil {
		h.writeError(ctx, w, err, statsOperation)
		return
	}

	resp := statsResponse{
		Summary: summaryResponse{
			TotalMessages:       stats.Summary.TotalMessages,
			PredefinedResponses: stats.Summary.PredefinedResponses,
			AIResponses:         stats.Summary.AIResponses,
			NoResponses:         stats.Summary.NoResponses,
		},
		Daily: make([]dailyResponse, 0, len(stats.Daily)),
	}
	for _, day := range stats.Daily {
		resp.Daily = append(resp.Daily, dailyResponse{
			Date:          day.Date.Format(time.DateOnly),
			MessagesCount: day.MessagesCount,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
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
		logger.Error("history operation failed", fields...)
	} else {
		logger.Warn("history request rejected", fields...)
	}

	httpx.WriteProblem(w, httpx.NewProblem(status, problemType, title, detail, fieldErrors))
}

func (h *Handler) classifyError(err error) (status int, title, detail, problemType string, fieldErrors service.FieldErrors) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, "Validation failed", "one or more fields are invalid", httpx.ProblemTypeValidation, validationErr.Fields
	}
	return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", httpx.ProblemTypeInternal, nil
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, h.logger)
}
