package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/zenGate-Global/pagebot/platform/go/httpx"
	"github.com/zenGate-Global/pagebot/platform/go/tenant"
)

// TenantRateLimiter hands out one token bucket per tenant.
type TenantRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewTenantRateLimiter allows rps requests per second per tenant with the given burst.
func NewTenantRateLimiter(rps float64, burst int) *TenantRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &TenantRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

func (l *TenantRateLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}

// Middleware rejects requests above the tenant's rate with a 429 problem. It must run after
// tenant scope resolution; requests without a scope are keyed by remote address.
func (l *TenantRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if scope, ok := tenant.FromContext(r.Context()); ok {
			key = scope.TenantID.String()
		}

		reservation := l.limiterFor(key).Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(int(delay.Round(time.Second)/time.Second)+1))
			httpx.WriteProblem(w, httpx.NewProblem(http.StatusTooManyRequests, httpx.ProblemTypeRateLimited, "Too Many Requests", "rate limit exceeded", nil))
			return
		}

		next.ServeHTTP(w, r)
	})
}
