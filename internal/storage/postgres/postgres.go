package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	// DefaultMaxConns bounds the pool when PoolConfig.MaxConns is zero.
	DefaultMaxConns = 8

	defaultConnectTimeout = 10 * time.Second

	codeUniqueViolation = "23505"
)

// PoolConfig configures a connection pool for the catalog and event stores.
type PoolConfig struct {
	DSN            string
	MaxConns       int32         // 0 = DefaultMaxConns
	ConnectTimeout time.Duration // 0 = 10s
	Logger         *zap.Logger   // nil = no logging
}

// Pool is a pgx pool shared by ParticleStore and EventStore.
type Pool struct {
	*pgxpool.Pool
	logger *zap.Logger
}

// NewPool parses cfg.DSN, connects and pings the server.
func NewPool(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is empty")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	if pc.MaxConns <= 0 {
		pc.MaxConns = DefaultMaxConns
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	pc.ConnConfig.ConnectTimeout = timeout

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("postgres pool ready",
		zap.String("host", pc.ConnConfig.Host),
		zap.String("database", pc.ConnConfig.Database),
		zap.Int32("max_conns", pc.MaxConns))

	return &Pool{Pool: pool, logger: logger}, nil
}

// Close releases every connection.
func (p *Pool) Close() {
	stat := p.Stat()
	p.Pool.Close()
	p.logger.Debug("postgres pool closed",
		zap.Int64("acquired_total", stat.AcquireCount()),
		zap.Duration("acquire_wait", stat.AcquireDuration()))
}

// isDuplicateKeyError reports a unique violation on particles, decays or event_records.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
