package auth

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	platformauth "github.com/zenGate-Global/pagebot/platform/go/auth"
	"github.com/zenGate-Global/pagebot/platform/go/auth/devtoken"
)

type sessionConfig struct {
	SessionSecret string `env:"SESSION_SECRET"`
}

func tokenCommand() *cobra.Command {
	var (
		tenantID  string
		username  string
		email     string
		secret    string
		expiresIn time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a session token for a tenant with the server's SESSION_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				var cfg sessionConfig
				if err := env.Parse(&cfg); err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				secret = cfg.SessionSecret
			}

			id, err := uuid.Parse(tenantID)
			if err != nil {
				return fmt.Errorf("--tenant-id must be a UUID: %w", err)
			}

			issuer, err := platformauth.NewSessionIssuer(secret, expiresIn)
			if err != nil {
				return err
			}

			token, expiresAt, err := issuer.Issue(platformauth.SessionSubject{TenantID: id, Username: username, Email: email})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "tenant UUID (tenantId claim)")
	cmd.Flags().StringVar(&username, "username", "", "name claim")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (defaults to SESSION_SECRET)")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 24*time.Hour, "token lifetime (e.g. 30m, 2h)")

	_ = cmd.MarkFlagRequired("tenant-id")

	return cmd
}

func devTokenCommand() *cobra.Command {
	var params devtoken.Params

	cmd := &cobra.Command{
		Use:   "devtoken",
		Short: "Generate an unsigned token accepted when AUTH_PROVIDER=dev",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := devtoken.BuildUnsignedToken(params, time.Now().UTC())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.TenantID, "tenant-id", "", "tenant UUID (tenantId claim)")
	cmd.Flags().StringVar(&params.Email, "email", "", "email claim")
	cmd.Flags().StringVar(&params.Username, "username", "", "name claim")
	cmd.Flags().StringVar(&params.ProjectID, "project-id", "", "optional Firebase project ID (iss/aud)")
	cmd.Flags().DurationVar(&params.ExpiresIn, "expires-in", time.Hour, "token lifetime (e.g. 30m, 2h)")

	_ = cmd.MarkFlagRequired("tenant-id")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
