package migrations

import (
	"context"
	"fmt"
	"strings"

	"collider-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies the postgres schema in one transaction, so a
// failing file leaves the database untouched. Files use IF NOT EXISTS and
// may be applied repeatedly.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := load(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migrations: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, m := range files {
		if strings.TrimSpace(m.sql) == "" {
			continue
		}
		if _, err := tx.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}
