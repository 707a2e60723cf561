package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionIssuer = "pagebot"

// SessionIssuer mints and verifies the HS256 session tokens handed out at login.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// SessionSubject is the identity embedded in a session token.
type SessionSubject struct {
	TenantID uuid.UUID
	Username string
	Email    string
}

// NewSessionIssuer builds an issuer. The secret must be at least 32 bytes.
func NewSessionIssuer(secret string, ttl time.Duration) (*SessionIssuer, error) {
	if len(secret) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a session token for the subject and returns it with its expiry.
func (s *SessionIssuer) Issue(subject SessionSubject) (string, time.Time, error) {
	if subject.TenantID == uuid.Nil {
		return "", time.Time{}, errors.New("tenant id is required")
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tenantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   subject.TenantID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TenantID: subject.TenantID.String(),
		Name:     subject.Username,
		Email:    subject.Email,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verifier returns a VerifyFunc accepting only unexpired tokens signed by this issuer.
func (s *SessionIssuer) Verifier() VerifyFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	keyFunc := func(*jwt.Token) (interface{}, error) { return s.secret, nil }

	return func(_ context.Context, token string) (Principal, error) {
		var claims tenantClaims
		if _, err := parser.ParseWithClaims(token, &claims, keyFunc); err != nil {
			return Principal{}, err
		}
		p, err := claims.principal(ProviderSession)
		if err != nil {
			return Principal{}, err
		}
		if p.TenantID == uuid.Nil {
			return Principal{}, errors.New("session token carries no tenant")
		}
		return p, nil
	}
}
