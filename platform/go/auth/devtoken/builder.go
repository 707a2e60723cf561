package devtoken

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Params describes the tenant an unsigned development token is minted for. No environment
// variables are read so the builder stays deterministic for tooling and tests.
type Params struct {
	TenantID  string        // tenant UUID; written to tenantId and firebase.tenant
	Username  string        // name claim
	Email     string        // email claim (required)
	ProjectID string        // optional; sets iss/aud like a Firebase ID token
	ExpiresIn time.Duration // relative expiry; default 1h if zero
}

// BuildUnsignedToken returns a JWT string with alg "none" and no signature. It is accepted by
// the API only when AUTH_PROVIDER=dev.
func BuildUnsignedToken(p Params, now time.Time) (string, error) {
	tenantID := strings.TrimSpace(p.TenantID)
	if tenantID == "" {
		return "", errors.New("tenantID is required")
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		return "", fmt.Errorf("tenantID must be a UUID: %w", err)
	}
	if strings.TrimSpace(p.Email) == "" {
		return "", errors.New("email is required")
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	expiresIn := p.ExpiresIn
	if expiresIn == 0 {
		expiresIn = time.Hour
	}

	payload := map[string]interface{}{
		"sub":      tenantID,
		"tenantId": tenantID,
		"email":    p.Email,
		"name":     p.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(expiresIn).Unix(),
		"firebase": map[string]interface{}{
			"sign_in_provider": "password",
			"tenant":           tenantID,
		},
	}

	if projectID := strings.TrimSpace(p.ProjectID); projectID != "" {
		payload["iss"] = fmt.Sprintf("https://securetoken.google.com/%s", projectID)
		payload["aud"] = projectID
	}

	headerSegment, err := encodeSegment(map[string]interface{}{"alg": "none", "typ": "JWT"})
	if err != nil {
		return "", err
	}

	payloadSegment, err := encodeSegment(payload)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s.%s", headerSegment, payloadSegment), nil
}

func encodeSegment(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
