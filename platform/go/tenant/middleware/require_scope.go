package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	platformauth "github.com/zenGate-Global/pagebot/platform/go/auth"
	"github.com/zenGate-Global/pagebot/platform/go/httpx"
	"github.com/zenGate-Global/pagebot/platform/go/tenant"
)

// Resolver maps a tenant id taken from a verified token to a registered tenant.
// Implemented by the accounts service.
type Resolver interface {
	ResolveScope(ctx context.Context, tenantID uuid.UUID) (tenant.Scope, error)
}

// Config controls middleware behavior.
type Config struct {
	// Optional in-memory TTL cache to avoid a tenant lookup per request; zero disables caching.
	CacheTTL time.Duration
}

// RequireScope resolves the tenant of the authenticated caller and attaches tenant.Scope to
// the context. Callers without a tenant, or with one that is not registered, get a 401 problem.
func RequireScope(resolver Resolver, cfg Config) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("tenant middleware: resolver is required")
	}

	var cache *scopeCache
	if cfg.CacheTTL > 0 {
		cache = newScopeCache(cfg.CacheTTL, time.Now)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := platformauth.PrincipalFrom(r.Context())
			if !ok || principal.TenantID == uuid.Nil {
				httpx.Unauthorized(w, "authentication required")
				return
			}

			scope, hit := cache.get(principal.TenantID)
			if !hit {
				var err error
				scope, err = resolver.ResolveScope(r.Context(), principal.TenantID)
				if err != nil {
					httpx.Unauthorized(w, "tenant not found")
					return
				}
				cache.put(scope)
			}

			next.ServeHTTP(w, r.WithContext(tenant.WithScope(r.Context(), scope)))
		})
	}
}

type scopeCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[uuid.UUID]cacheItem
}

type cacheItem struct {
	scope     tenant.Scope
	expiresAt time.Time
}

func newScopeCache(ttl time.Duration, now func() time.Time) *scopeCache {
	return &scopeCache{ttl: ttl, now: now, items: make(map[uuid.UUID]cacheItem)}
}

func (c *scopeCache) get(id uuid.UUID) (tenant.Scope, bool) {
	if c == nil {
		return tenant.Scope{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[id]
	if !ok {
		return tenant.Scope{}, false
	}
	if c.now().After(item.expiresAt) {
		delete(c.items, id)
		return tenant.Scope{}, false
	}
	return item.scope, true
}

func (c *scopeCache) put(scope tenant.Scope) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[scope.TenantID] = cacheItem{scope: scope, expiresAt: c.now().Add(c.ttl)}
}
