package migrate

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/zenGate-Global/pagebot/platform/go/persistence"
)

type config struct {
	DatabaseURL string `env:"DATABASE_URL"`
}

// Command groups schema migration helpers over the embedded migrations.
func Command() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string (defaults to DATABASE_URL)")

	open := func() (*persistence.Migrator, error) {
		dsn, err := resolveDatabaseURL(databaseURL)
		if err != nil {
			return nil, err
		}
		return persistence.NewMigrator(dsn)
	}

	cmd.AddCommand(upCommand(open), downCommand(open), versionCommand(open))
	return cmd
}

func resolveDatabaseURL(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return "", fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	return cfg.DatabaseURL, nil
}

type opener func() (*persistence.Migrator, error)

func upCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck

			if err := m.Up(); err != nil {
				return err
			}
			return printVersion(cmd, m)
		},
	}
}

func downCommand(open opener) *cobra.Command {
	var steps int

	c := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck

			if err := m.Down(steps); err != nil {
				return err
			}
			return printVersion(cmd, m)
		},
	}
	c.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return c
}

func versionCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck

			return printVersion(cmd, m)
		},
	}
}

func printVersion(cmd *cobra.Command, m *persistence.Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
	return nil
}
