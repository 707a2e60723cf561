package devtoken

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const tenantID = "7b7f1c1e-58a7-4a39-9a36-3b8c4d8d2f10"

func TestBuildUnsignedToken(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()

	token, err := BuildUnsignedToken(Params{
		TenantID:  tenantID,
		Username:  "shop-owner",
		Email:     "owner@example.com",
		ProjectID: "local-pagebot",
		ExpiresIn: 2 * time.Hour,
	}, now)
	require.NoError(t, err)

	header, payload := splitToken(t, token)
	require.Equal(t, "none", header["alg"])

	require.Equal(t, tenantID, payload["tenantId"])
	require.Equal(t, tenantID, payload["sub"])
	require.Equal(t, "owner@example.com", payload["email"])
	require.Equal(t, "shop-owner", payload["name"])
	require.Equal(t, "https://securetoken.google.com/local-pagebot", payload["iss"])
	require.Equal(t, "local-pagebot", payload["aud"])
	require.EqualValues(t, now.Add(2*time.Hour).Unix(), payload["exp"])

	firebaseClaim, ok := payload["firebase"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, tenantID, firebaseClaim["tenant"])
}

func TestBuildUnsignedTokenValidation(t *testing.T) {
	t.Parallel()

	_, err := BuildUnsignedToken(Params{Email: "a@example.com"}, time.Time{})
	require.ErrorContains(t, err, "tenantID is required")

	_, err = BuildUnsignedToken(Params{TenantID: "not-a-uuid", Email: "a@example.com"}, time.Time{})
	require.ErrorContains(t, err, "must be a UUID")

	_, err = BuildUnsignedToken(Params{TenantID: tenantID}, time.Time{})
	require.ErrorContains(t, err, "email is required")
}

func splitToken(t *testing.T, token string) (map[string]interface{}, map[string]interface{}) {
	t.Helper()
	parts := strings.Split(token, ".")
	require.GreaterOrEqual(t, len(parts), 2, "invalid token format: %q", token)
	return decodeSegment(t, parts[0]), decodeSegment(t, parts[1])
}

func decodeSegment(t *testing.T, segment string) map[string]interface{} {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
