package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zenGate-Global/pagebot/domains/accounts/be/service"
	"github.com/zenGate-Global/pagebot/platform/go/httpx"
	platformlogging "github.com/zenGate-Global/pagebot/platform/go/logging"
	"github.com/zenGate-Global/pagebot/platform/go/requesttrace"
	"github.com/zenGate-Global/pagebot/platform/go/tenant"
)

type operation string

const (
	registerOperation    operation = "register"
	loginOperation       operation = "login"
	currentUserOperation operation = "currentUser"
)

// Handler exposes the accounts service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("accounts service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

type registerRequest struct {
	Username          string  `json:"username"`
	Email             string  `json:"email"`
	Password          string  `json:"password"`
	FacebookAppID     *string `json:"facebookAppId"`
	FacebookAppSecret *string `json:"facebookAppSecret"`
	WebhookToken      *string `json:"webhookToken"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type userResponse struct {
	Username      string  `json:"username"`
	Email         string  `json:"email"`
	FacebookAppID *string `json:"facebookAppId"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body registerRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeError(ctx, w, err, registerOperation)
		return
	}

	account, err := h.svc.Register(ctx, requesttrace.FromContextOrAnonymous(ctx), service.RegisterInput{
		Username:          body.Username,
		Email:             body.Email,
		Password:          body.Password,
		FacebookAppID:     body.FacebookAppID,
		FacebookAppSecret: body.FacebookAppSecret,
		WebhookToken:      body.WebhookToken,
	})
	if err != nil {
		h.writeError(ctx, w, err, registerOperation)
		return
	}

	h.loggerFrom(ctx).Info("tenant registered", zap.String("tenant_id", account.TenantID.String()))
	httpx.WriteSuccess(w, "Registration successful", "")
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body loginRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.writeError(ctx, w, err, loginOperation)
		return
	}

	session, err := h.svc.Login(ctx, requesttrace.FromContextOrAnonymous(ctx), service.LoginInput{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		h.writeError(ctx, w, err, loginOperation)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		Message:   "Login successful",
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout handles POST /auth/logout. Session tokens are stateless; the client discards its copy.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	httpx.WriteSuccess(w, "Logged out", "")
}

// CurrentUser handles GET /auth/user.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	scope, ok := tenant.FromContext(ctx)
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}

	account, err := h.svc.CurrentUser(ctx, scope)
	if err != nil {
		h.writeError(ctx, w, err, currentUserOperation)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userResponse{
		Username:      account.Username,
		Email:         account.Email,
		FacebookAppID: account.FacebookAppID,
	})
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
		logger.Error("accounts operation failed", fields...)
	case status == http.StatusNotFound:
		logger.Info("account not found", fields...)
	default:
		logger.Warn("accounts request rejected", fields...)
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
	case errors.Is(err, service.ErrConflict):
		return http.StatusBadRequest, "Registration rejected", "email or username already registered", httpx.ProblemTypeConflict, nil
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest, "Login failed", "invalid email or password", httpx.ProblemTypeValidation, nil
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Resource not found", "account not found", httpx.ProblemTypeNotFound, nil
	default:
		return http.StatusInternalServerError, "Internal server error", "an unexpected error occurred", httpx.ProblemTypeInternal, nil
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, h.logger)
}
