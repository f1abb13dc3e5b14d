// Package main imports a particle catalog file into a persistent store.
// Usage: catalog-import --source particles.yaml --target sqlite --sqlite-path collider.db
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"collider-lab/internal/app"
	"collider-lab/internal/catalog"
	"collider-lab/internal/config"
	"collider-lab/internal/logging"
	"collider-lab/internal/storage"
	"collider-lab/internal/storage/migrations"
	pgstore "collider-lab/internal/storage/postgres"
	"collider-lab/internal/storage/sqlite"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags
	fs := pflag.NewFlagSet("catalog-import", pflag.ExitOnError)
	cfg.BindFlags(fs)
	source := fs.String("source", config.CatalogEmbedded, `Catalog file (JSON or YAML), or "embedded"`)
	target := fs.String("target", config.CatalogSQLite, "Target store: postgres or sqlite")
	dryRun := fs.Bool("dry-run", false, "Validate the catalog without writing it")
	_ = fs.Parse(os.Args[1:])

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger = logger.Named("catalog-import")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, *source, *target, *dryRun); err != nil {
		logger.Error("import failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, source, target string, dryRun bool) error {
	m, err := loadSource(source)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", zap.String("source", source), zap.Int("particles", m.Len()))

	if dryRun {
		return nil
	}

	store, closeStore, err := openTarget(ctx, cfg, logger, target)
	if err != nil {
		return err
	}
	defer closeStore()

	start := time.Now()
	n, err := catalog.Import(ctx, store, m)
	if err != nil {
		return err
	}

	logger.Info("catalog imported",
		zap.String("target", target),
		zap.Int("particles", n),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func loadSource(source string) (*catalog.Memory, error) {
	if source == "" || source == config.CatalogEmbedded {
		return catalog.Embedded()
	}
	return catalog.LoadFile(source)
}

// openTarget opens and migrates the destination particle store.
func openTarget(ctx context.Context, cfg *config.Config, logger *zap.Logger, target string) (storage.ParticleStore, func(), error) {
	switch target {
	case config.CatalogPostgres:
		if cfg.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("--postgres-dsn is required for target %q", target)
		}
		pool, err := app.OpenPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
		}
		return pgstore.NewParticleStore(pool), pool.Close, nil

	case config.CatalogSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown target %q (want postgres or sqlite)", target)
	}
}
