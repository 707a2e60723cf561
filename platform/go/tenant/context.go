package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Scope is the tenant identity every store and router call is scoped to.
// Middleware attaches it once the session token has been resolved to a registered tenant.
type Scope struct {
	TenantID uuid.UUID
	Username string
	Email    string
}

type ctxKey string

const scopeKey ctxKey = "PAGEBOT_TENANT_SCOPE"

// WithScope returns a derived context carrying the tenant Scope.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// FromContext extracts the tenant Scope and a boolean indicating presence.
func FromContext(ctx context.Context) (Scope, bool) {
	v := ctx.Value(scopeKey)
	if v == nil {
		return Scope{}, false
	}

	scope, ok := v.(Scope)
	if !ok || scope.TenantID == uuid.Nil {
		return Scope{}, false
	}
	return scope, true
}
