package requesttrace

import (
	"context"
	"errors"

	"github.com/google/uuid"

	platformauth "github.com/zenGate-Global/pagebot/platform/go/auth"
)

type contextKey string

const (
	ctxAuditInfo contextKey = "PAGEBOT_REQUEST_TRACE"
)

// ActorKind represents who initiated a request.
type ActorKind string

const (
	ActorKindTenant    ActorKind = "tenant"
	ActorKindWebhook   ActorKind = "webhook"
	ActorKindAnonymous ActorKind = "anonymous"
	ActorKindSystem    ActorKind = "system"
)

// AuditInfo is the request-scoped actor used in log lines.
// TenantID is set only for tenant actors.
type AuditInfo struct {
	ActorKind ActorKind
	SubjectID string
	TenantID  *string
	RequestID string
}

// IntoContext stores the AuditInfo in the provided context.
func IntoContext(ctx context.Context, audit AuditInfo) context.Context {
	return context.WithValue(ctx, ctxAuditInfo, audit)
}

// FromContext extracts the AuditInfo from context, returning false when not present.
func FromContext(ctx context.Context) (AuditInfo, bool) {
	if ctx == nil {
		return AuditInfo{}, false
	}
	audit, ok := ctx.Value(ctxAuditInfo).(AuditInfo)
	return audit, ok
}

// FromContextOrAnonymous returns the stored AuditInfo, or an anonymous record when absent.
func FromContextOrAnonymous(ctx context.Context) AuditInfo {
	if audit, ok := FromContext(ctx); ok {
		return audit
	}
	return Anonymous("")
}

// FromPrincipal builds a tenant AuditInfo. A principal without a tenant is rejected.
func FromPrincipal(p platformauth.Principal, requestID string) (AuditInfo, error) {
	if p.TenantID == uuid.Nil {
		return AuditInfo{}, errors.New("tenant id is required to build audit info")
	}

	tenantID := p.TenantID.String()
	return AuditInfo{
		ActorKind: ActorKindTenant,
		SubjectID: p.Subject,
		TenantID:  &tenantID,
		RequestID: requestID,
	}, nil
}

// Webhook marks platform webhook deliveries and verification calls.
func Webhook(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindWebhook, RequestID: requestID}
}

// Anonymous builds an AuditInfo for unauthenticated requests such as register or login.
func Anonymous(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindAnonymous, RequestID: requestID}
}

// System builds an AuditInfo for CLI and background operations.
func System(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindSystem, RequestID: requestID}
}
