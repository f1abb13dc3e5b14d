// Package app wires catalogs, stores and generation components from config.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"collider-lab/internal/catalog"
	"collider-lab/internal/config"
	"collider-lab/internal/observability"
	"collider-lab/internal/storage"
	chstore "collider-lab/internal/storage/clickhouse"
	"collider-lab/internal/storage/memory"
	"collider-lab/internal/storage/migrations"
	pgstore "collider-lab/internal/storage/postgres"
	"collider-lab/internal/storage/sqlite"
)

// Stores holds the event and aggregate stores used by generation runs.
type Stores struct {
	Events     storage.EventStore
	Aggregates storage.AggregateStore
	Backend    string // "memory", "postgres" or "clickhouse"
}

// OpenCatalog opens the particle catalog named by cfg.Catalog.
// The returned cleanup must be called once the provider is no longer used.
func OpenCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (catalog.Provider, func(), error) {
	noop := func() {}

	switch cfg.Catalog {
	case config.CatalogEmbedded:
		m, err := catalog.Embedded()
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using embedded catalog", zap.Int("particles", m.Len()))
		return m, noop, nil

	case config.CatalogPostgres:
		pool, err := OpenPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres catalog")
		return catalog.NewStoreProvider(pgstore.NewParticleStore(pool)), pool.Close, nil

	case config.CatalogSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite catalog: %w", err)
		}
		logger.Info("using sqlite catalog", zap.String("path", cfg.SQLitePath))
		return catalog.NewStoreProvider(store), func() { _ = store.Close() }, nil

	default:
		m, err := catalog.LoadFile(cfg.Catalog)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using catalog file",
			zap.String("path", cfg.Catalog), zap.Int("particles", m.Len()))
		return m, noop, nil
	}
}

// OpenPostgres connects a pool sized from cfg.
func OpenPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgstore.Pool, error) {
	pool, err := pgstore.NewPool(ctx, pgstore.PoolConfig{
		DSN:      cfg.PostgresDSN,
		MaxConns: cfg.PostgresMaxConns,
		Logger:   logger.Named("postgres"),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return pool, nil
}

// OpenStores creates the event and aggregate stores.
// Persistent stores are migrated before use.
func OpenStores(ctx context.Context, cfg *config.Config, m *observability.Metrics, logger *zap.Logger) (*Stores, func(), error) {
	if cfg.UseMemory {
		return &Stores{
			Events:     memory.NewEventStore(),
			Aggregates: memory.NewChannelAggregateStore(),
			Backend:    "memory",
		}, func() {}, nil
	}

	// ClickHouse (analytics)
	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	stores := &Stores{
		Events:     Instrument(chstore.NewEventStore(chConn), "clickhouse", m),
		Aggregates: chstore.NewAggregateStore(chConn),
		Backend:    config.EventsClickhouse,
	}
	cleanup := func() { chConn.Close() }

	if cfg.EventStore != config.EventsPostgres {
		return stores, cleanup, nil
	}

	// PostgreSQL (source of record)
	pool, err := OpenPostgres(ctx, cfg, logger)
	if err != nil {
		chConn.Close()
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		chConn.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	stores.Events = Instrument(pgstore.NewEventStore(pool), "postgres", m)
	stores.Backend = config.EventsPostgres
	cleanup = func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}
