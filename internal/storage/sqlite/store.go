// Package sqlite provides a SQLite-backed particle catalog store for local runs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"collider-lab/internal/domain"
	"collider-lab/internal/storage"
	"collider-lab/internal/storage/migrations"
)

// ParticleStore implements storage.ParticleStore on a SQLite file.
type ParticleStore struct {
	db *sql.DB
}

// Compile-time interface check.
var _ storage.ParticleStore = (*ParticleStore)(nil)

// Open opens a SQLite particle store and applies embedded migrations.
func Open(ctx context.Context, path string) (*ParticleStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &ParticleStore{db: db}, nil
}

// Close closes the SQLite handle.
func (s *ParticleStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const particleColumns = `code, name, mass, charge, spin, width, quarks, particle_type`

// InsertBulk adds multiple particles atomically. Fails entire batch on any duplicate code.
func (s *ParticleStore) InsertBulk(ctx context.Context, particles []*domain.Particle) error {
	if len(particles) == 0 {
		return nil
	}
	for _, p := range particles {
		if p.ID == 0 || p.Name == "" {
			return fmt.Errorf("%w: particle needs a non-zero code and a name", storage.ErrInvalidInput)
		}
		if !p.Type.IsValid() {
			return fmt.Errorf("%w: particle %d has type %q", storage.ErrInvalidInput, p.ID, p.Type)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().UnixMilli()
	for _, p := range particles {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO particles (`+particleColumns+`, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Mass, p.Charge, p.Spin, p.Width, p.Quarks, string(p.Type), now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert particle %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// InsertDecays stores the decay table of a particle.
func (s *ParticleStore) InsertDecays(ctx context.Context, parentID int, channels []domain.DecayChannel) error {
	if len(channels) == 0 {
		return fmt.Errorf("%w: empty decay table for %d", storage.ErrInvalidInput, parentID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var parentExists, hasDecays bool
	err = tx.QueryRowContext(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM particles WHERE code = ?),
			EXISTS (SELECT 1 FROM particle_decays WHERE parent_code = ?)
	`, parentID, parentID).Scan(&parentExists, &hasDecays)
	if err != nil {
		return fmt.Errorf("check decay parent: %w", err)
	}
	if !parentExists {
		return storage.ErrNotFound
	}
	if hasDecays {
		return storage.ErrDuplicateKey
	}

	for i, ch := range channels {
		products, err := json.Marshal(ch.Products)
		if err != nil {
			return fmt.Errorf("encode products: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO particle_decays (parent_code, channel_index, products, fraction) VALUES (?, ?, ?, ?)`,
			parentID, i, string(products), ch.Fraction,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert decay channel %d of %d: %w", i, parentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a particle by code. Returns ErrNotFound if not exists.
func (s *ParticleStore) GetByID(ctx context.Context, id int) (*domain.Particle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+particleColumns+` FROM particles WHERE code = ?`, id)
	return scanOne(row)
}

// GetByName retrieves a particle by name. Returns ErrNotFound if not exists.
func (s *ParticleStore) GetByName(ctx context.Context, name string) (*domain.Particle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+particleColumns+` FROM particles WHERE name = ?`, name)
	return scanOne(row)
}

// List retrieves all particles ordered by code ASC.
func (s *ParticleStore) List(ctx context.Context) ([]*domain.Particle, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+particleColumns+` FROM particles ORDER BY code ASC`)
	if err != nil {
		return nil, fmt.Errorf("list particles: %w", err)
	}
	defer rows.Close()

	var particles []*domain.Particle
	for rows.Next() {
		p, err := scanParticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan particle row: %w", err)
		}
		particles = append(particles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate particle rows: %w", err)
	}
	return particles, nil
}

// DecaysFor retrieves the decay channels of a particle in insertion order.
func (s *ParticleStore) DecaysFor(ctx context.Context, parentID int) ([]domain.DecayChannel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT products, fraction FROM particle_decays WHERE parent_code = ? ORDER BY channel_index ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("get decays: %w", err)
	}
	defer rows.Close()

	channels := []domain.DecayChannel{}
	for rows.Next() {
		var (
			raw string
			ch  domain.DecayChannel
		)
		if err := rows.Scan(&raw, &ch.Fraction); err != nil {
			return nil, fmt.Errorf("scan decay row: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &ch.Products); err != nil {
			return nil, fmt.Errorf("decode products of %d: %w", parentID, err)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decay rows: %w", err)
	}
	return channels, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner) (*domain.Particle, error) {
	p, err := scanParticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get particle: %w", err)
	}
	return p, nil
}

func scanParticle(row scanner) (*domain.Particle, error) {
	var (
		p     domain.Particle
		ptype string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Mass, &p.Charge, &p.Spin, &p.Width, &p.Quarks, &ptype); err != nil {
		return nil, err
	}
	p.Type = domain.ParticleType(ptype)
	return &p, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
