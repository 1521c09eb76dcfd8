package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/courtdata/assetlineage/internal/blob/s3"
	"github.com/courtdata/assetlineage/internal/config"
	"github.com/courtdata/assetlineage/internal/domain"
	"github.com/courtdata/assetlineage/internal/store/postgres"
)

// Dependencies holds the external resources a stage run may need. Fields are
// nil when the selected stage does not use them.
type Dependencies struct {
	BronzeStore domain.BronzeStore
	Publisher   *s3blob.Publisher
}

// Wire constructs the dependencies the given stage needs and returns a
// cleanup function releasing them. The database is only dialed for non
// dry-run bronze loads; the object store client is only built when
// publishing is in play.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger, stage string, dryRun bool) (Dependencies, func(), error) {
	var deps Dependencies
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	needsDB := stage == "bronze" && !dryRun
	needsS3 := stage == "publish" || (stage == "all" && cfg.Publish.Enabled)

	if needsDB {
		client, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.PoolMaxConns,
			MinConns: cfg.Database.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return deps, nil, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, client.Close)

		if cfg.Database.RunMigrations {
			if err := client.RunMigrations(ctx); err != nil {
				cleanup()
				return deps, nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		deps.BronzeStore = postgres.NewBronzeStore(client.Pool())
	}

	if needsS3 {
		client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return deps, nil, fmt.Errorf("connect object store: %w", err)
		}
		deps.Publisher = s3blob.NewPublisher(client, cfg.Publish.Prefix,
			logger.With(slog.String("component", "publisher")))
	}

	return deps, cleanup, nil
}
