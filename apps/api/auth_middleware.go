package main

import (
	"context"

	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/pagebot/platform/go/auth"
	"github.com/zenGate-Global/pagebot/platform/go/gcp"
)

func newSessionIssuer(cfg config) (*platformauth.SessionIssuer, error) {
	return platformauth.NewSessionIssuer(cfg.SessionSecret, cfg.SessionTTL)
}

// buildVerifier returns the token verifier for the configured provider. Session tokens minted
// at login are always accepted; firebase and dev add a second verifier tried afterwards.
func buildVerifier(ctx context.Context, cfg config, sessions *platformauth.SessionIssuer, logger *zap.Logger) platformauth.VerifyFunc {
	session := sessions.Verifier()

	switch cfg.AuthProvider {
	case "session":
		return session
	case "firebase":
		fbAuth, err := gcp.InitFirebaseAuth(ctx, gcp.FirebaseConfig{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsFile: cfg.FirebaseCredsFile,
		})
		if err != nil {
			logger.Fatal("init firebase auth", zap.Error(err))
		}
		return platformauth.FirstOf(session, platformauth.FirebaseVerifier(fbAuth))
	case "dev":
		logger.Warn("using dev auth verifier; do not use in production")
		return platformauth.FirstOf(session, platformauth.DevVerifier())
	default:
		logger.Fatal("unsupported auth provider", zap.String("provider", cfg.AuthProvider))
		return nil
	}
}
