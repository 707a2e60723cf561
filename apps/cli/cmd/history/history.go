package history

import (
	"context"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	historyrepo "github.com/zenGate-Global/pagebot/domains/history/be/repo"
	historyservice "github.com/zenGate-Global/pagebot/domains/history/be/service"
	"github.com/zenGate-Global/pagebot/platform/go/persistence"
	"github.com/zenGate-Global/pagebot/platform/go/storage"
)

type config struct {
	DatabaseURL     string `env:"DATABASE_URL"`
	StorageBackend  string `env:"ARCHIVE_BACKEND" envDefault:"local"` // gcs | local
	StorageBucket   string `env:"ARCHIVE_BUCKET" envDefault:"pagebot-archive"`
	StorageRoot     string `env:"ARCHIVE_ROOT" envDefault:"tenants"`
	StorageLocalDir string `env:"ARCHIVE_LOCAL_DIR" envDefault:"./.data/archive"`
}

// Command groups history maintenance helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Message history maintenance",
	}

	cmd.AddCommand(archiveCommand())
	return cmd
}

func archiveCommand() *cobra.Command {
	var (
		databaseURL string
		tenantID    string
		pageID      string
		since       time.Duration
		backend     string
		bucket      string
		root        string
		localDir    string
	)

	c := &cobra.Command{
		Use:   "archive",
		Short: "Export a page's message history as JSON Lines to GCS or a local directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var cfg config
			if err := env.Parse(&cfg); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			override(&cfg.DatabaseURL, databaseURL)
			override(&cfg.StorageBackend, backend)
			override(&cfg.StorageBucket, bucket)
			override(&cfg.StorageRoot, root)
			override(&cfg.StorageLocalDir, localDir)

			if cfg.DatabaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			tid, err := uuid.Parse(tenantID)
			if err != nil {
				return fmt.Errorf("--tenant-id must be a UUID: %w", err)
			}

			writer, closeWriter, err := newWriter(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeWriter.Close() //nolint:errcheck

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			store, err := persistence.NewHistoryStore(pool)
			if err != nil {
				return fmt.Errorf("init history store: %w", err)
			}

			archiver := historyservice.NewArchiver(historyrepo.NewPostgresRepository(store), writer, historyservice.ArchiveConfig{
				Bucket: cfg.StorageBucket,
				Root:   cfg.StorageRoot,
			})

			result, err := archiver.Archive(ctx, tid, pageID, time.Now().Add(-since))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "archived %d records to %s/%s\n", result.Records, result.Location.Bucket, result.Location.FullPath)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string (defaults to DATABASE_URL)")
	c.Flags().StringVar(&tenantID, "tenant-id", "", "tenant UUID owning the page")
	c.Flags().StringVar(&pageID, "page-id", "", "Facebook page id")
	c.Flags().DurationVar(&since, "since", 30*24*time.Hour, "export records processed within this window")
	c.Flags().StringVar(&backend, "backend", "", "gcs or local (defaults to ARCHIVE_BACKEND)")
	c.Flags().StringVar(&bucket, "bucket", "", "bucket name (defaults to ARCHIVE_BUCKET)")
	c.Flags().StringVar(&root, "root", "", "object prefix above tenant folders (defaults to ARCHIVE_ROOT)")
	c.Flags().StringVar(&localDir, "local-dir", "", "base directory for the local backend (defaults to ARCHIVE_LOCAL_DIR)")

	_ = c.MarkFlagRequired("tenant-id")
	_ = c.MarkFlagRequired("page-id")

	return c
}

func override(dst *string, flagValue string) {
	if flagValue != "" {
		*dst = flagValue
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newWriter(ctx context.Context, cfg config) (storage.ObjectWriter, io.Closer, error) {
	switch cfg.StorageBackend {
	case "gcs":
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("init gcs client: %w", err)
		}
		return storage.NewGCSWriter(client), client, nil
	case "local":
		if cfg.StorageLocalDir == "" {
			return nil, nil, fmt.Errorf("local archive dir is required")
		}
		return storage.NewLocalWriter(cfg.StorageLocalDir), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("invalid archive backend %q (use gcs or local)", cfg.StorageBackend)
	}
}
