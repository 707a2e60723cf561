package requesttrace

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	platformauth "github.com/zenGate-Global/pagebot/platform/go/auth"
)

func TestIntoContextAndFromContext(t *testing.T) {
	audit := AuditInfo{ActorKind: ActorKindTenant, TenantID: ptr("tenant-1"), RequestID: "req-abc"}

	got, ok := FromContext(IntoContext(context.Background(), audit))
	require.True(t, ok)
	require.Equal(t, audit, got)
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)
	require.Equal(t, ActorKindAnonymous, FromContextOrAnonymous(context.Background()).ActorKind)
}

func TestFromPrincipal(t *testing.T) {
	tenantID := uuid.New()

	audit, err := FromPrincipal(platformauth.Principal{Subject: "subject-1", TenantID: tenantID}, "req-xyz")
	require.NoError(t, err)
	require.Equal(t, ActorKindTenant, audit.ActorKind)
	require.Equal(t, "subject-1", audit.SubjectID)
	require.Equal(t, tenantID.String(), *audit.TenantID)
	require.Equal(t, "req-xyz", audit.RequestID)
}

func TestFromPrincipalWithoutTenant(t *testing.T) {
	_, err := FromPrincipal(platformauth.Principal{Subject: "subject-1"}, "req-1")
	require.Error(t, err)
}

func TestWebhookAndSystem(t *testing.T) {
	require.Equal(t, ActorKindWebhook, Webhook("req-hook").ActorKind)
	require.Nil(t, Webhook("req-hook").TenantID)
	require.Equal(t, ActorKindSystem, System("req-sys").ActorKind)
}

func ptr[T any](v T) *T { return &v }
