package contracts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	spec, err := Load()
	require.NoError(t, err)
	require.Contains(t, spec.Components.SecuritySchemes, "bearerAuth")

	for _, path := range []string{
		"/api/v1/pages",
		"/api/v1/responses/{id}",
		"/api/v1/history/{pageId}",
		"/api/v1/test/ai",
		"/api/v1/webhook",
	} {
		require.NotNil(t, spec.Paths.Find(path), path)
	}
}
