package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token providers recorded on a Principal.
const (
	ProviderSession  = "session"
	ProviderFirebase = "firebase"
	ProviderDev      = "dev"
)

// Principal is the caller identified by a verified bearer token.
type Principal struct {
	Subject  string
	Username string
	Email    string
	// TenantID is uuid.Nil when the token names no tenant.
	TenantID uuid.UUID
	Provider string
}

type principalKey struct{}

// PrincipalFrom returns the caller stored by Bearer.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// WithPrincipal stores p on the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// VerifyFunc validates a bearer token and returns the caller it identifies.
type VerifyFunc func(ctx context.Context, token string) (Principal, error)

// Bearer verifies the Authorization bearer token when one is sent and stores the Principal on
// the request context. Requests without a token continue anonymously; tenant routes reject
// them in RequireScope.
func Bearer(verify VerifyFunc) func(http.Handler) http.Handler {
	if verify == nil {
		panic("auth.Bearer: verify func must not be nil")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := ExtractJWTToken(r)
			if r.Method == http.MethodOptions || !found || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := verify(r.Context(), token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="pagebot", error="invalid_token", error_description=%q`, err.Error()))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// FirstOf tries each verifier in order and returns the first accepted principal.
func FirstOf(verifiers ...VerifyFunc) VerifyFunc {
	return func(ctx context.Context, token string) (Principal, error) {
		var errs []error
		for _, verify := range verifiers {
			p, err := verify(ctx, token)
			if err == nil {
				return p, nil
			}
			errs = append(errs, err)
		}
		return Principal{}, errors.Join(errs...)
	}
}

// tenantClaims is the claim set of session and dev tokens. Identity Platform tokens carry the
// tenant under firebase.tenant instead of tenantId.
type tenantClaims struct {
	jwt.RegisteredClaims
	TenantID string          `json:"tenantId,omitempty"`
	Name     string          `json:"name,omitempty"`
	Email    string          `json:"email,omitempty"`
	Firebase *firebaseClaims `json:"firebase,omitempty"`
}

type firebaseClaims struct {
	Tenant string `json:"tenant,omitempty"`
}

func (c *tenantClaims) principal(provider string) (Principal, error) {
	p := Principal{Subject: c.Subject, Username: c.Name, Email: c.Email, Provider: provider}

	raw := strings.TrimSpace(c.TenantID)
	if raw == "" && c.Firebase != nil {
		raw = strings.TrimSpace(c.Firebase.Tenant)
	}
	if raw == "" {
		return p, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return Principal{}, fmt.Errorf("tenant claim %q is not a UUID", raw)
	}
	p.TenantID = id
	return p, nil
}

// FirebaseVerifier validates Firebase ID tokens. The tenant comes from a tenantId custom claim,
// else from the Identity Platform tenant.
func FirebaseVerifier(fbAuth *firebaseauth.Client) VerifyFunc {
	return func(ctx context.Context, token string) (Principal, error) {
		t, err := fbAuth.VerifyIDToken(ctx, token)
		if err != nil {
			return Principal{}, err
		}

		claims := tenantClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: t.UID},
			TenantID:         stringClaim(t.Claims, "tenantId"),
			Name:             stringClaim(t.Claims, "name"),
			Email:            stringClaim(t.Claims, "email"),
			Firebase:         &firebaseClaims{Tenant: t.Firebase.Tenant},
		}
		return claims.principal(ProviderFirebase)
	}
}

func stringClaim(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return v
}

// DevVerifier accepts unsigned tokens minted by the devtoken builder. Only the expiry is
// checked. Local development only.
func DevVerifier() VerifyFunc {
	return devVerifier(time.Now)
}

func devVerifier(now func() time.Time) VerifyFunc {
	parser := jwt.NewParser()
	return func(_ context.Context, token string) (Principal, error) {
		parts := strings.Split(token, ".")
		if len(parts) < 2 {
			return Principal{}, errors.New("invalid token format")
		}
		payload, err := parser.DecodeSegment(parts[1])
		if err != nil {
			return Principal{}, fmt.Errorf("decode payload: %w", err)
		}

		var claims tenantClaims
		if err := json.Unmarshal(payload, &claims); err != nil {
			return Principal{}, fmt.Errorf("unmarshal claims: %w", err)
		}
		if claims.ExpiresAt != nil && now().After(claims.ExpiresAt.Time) {
			return Principal{}, errors.New("token is expired")
		}
		return claims.principal(ProviderDev)
	}
}
