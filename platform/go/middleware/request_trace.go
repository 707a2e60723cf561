package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/pagebot/platform/go/auth"
	"github.com/zenGate-Global/pagebot/platform/go/httpx"
	platformlogging "github.com/zenGate-Global/pagebot/platform/go/logging"
	"github.com/zenGate-Global/pagebot/platform/go/requesttrace"
)

// RequestTrace populates the context with request-scoped AuditInfo and tags the request
// logger with the actor. It must run after auth.Bearer.
func RequestTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := platformlogging.FromRequest(r, nil)
		requestID := middleware.GetReqID(r.Context())

		var audit requesttrace.AuditInfo
		switch principal, ok := platformauth.PrincipalFrom(r.Context()); {
		case ok:
			var err error
			audit, err = requesttrace.FromPrincipal(principal, requestID)
			if err != nil {
				if logger != nil {
					logger.Warn("build audit info from principal", zap.String("provider", principal.Provider), zap.Error(err))
				}
				httpx.Unauthorized(w, "token carries no tenant")
				return
			}
		case strings.HasSuffix(r.URL.Path, "/webhook"):
			audit = requesttrace.Webhook(requestID)
		default:
			audit = requesttrace.Anonymous(requestID)
		}

		ctx := requesttrace.IntoContext(r.Context(), audit)
		if logger != nil {
			fields := []zap.Field{zap.String("actor_kind", string(audit.ActorKind))}
			if audit.TenantID != nil {
				fields = append(fields, zap.String("tenant_id", *audit.TenantID))
			}
			ctx = platformlogging.WithLogger(ctx, logger.With(fields...))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
