package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"collider-lab/internal/domain"
	"collider-lab/internal/storage"
)

// ParticleStore implements storage.ParticleStore using PostgreSQL.
type ParticleStore struct {
	pool *Pool
}

// NewParticleStore creates a new ParticleStore.
func NewParticleStore(pool *Pool) *ParticleStore {
	return &ParticleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ParticleStore = (*ParticleStore)(nil)

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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO particles (` + particleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, p := range particles {
		_, err := tx.Exec(ctx, query,
			p.ID, p.Name, p.Mass, p.Charge, p.Spin, p.Width, p.Quarks, string(p.Type),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert particle %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// InsertDecays stores the decay table of a particle.
func (s *ParticleStore) InsertDecays(ctx context.Context, parentID int, channels []domain.DecayChannel) error {
	if len(channels) == 0 {
		return fmt.Errorf("%w: empty decay table for %d", storage.ErrInvalidInput, parentID)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var parentExists, hasDecays bool
	err = tx.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM particles WHERE code = $1),
			EXISTS (SELECT 1 FROM particle_decays WHERE parent_code = $1)
	`, parentID).Scan(&parentExists, &hasDecays)
	if err != nil {
		return fmt.Errorf("check decay parent: %w", err)
	}
	if !parentExists {
		return storage.ErrNotFound
	}
	if hasDecays {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO particle_decays (parent_code, channel_index, products, fraction)
		VALUES ($1, $2, $3, $4)
	`
	for i, ch := range channels {
		if _, err := tx.Exec(ctx, query, parentID, i, toInt32s(ch.Products), ch.Fraction); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert decay channel %d of %d: %w", i, parentID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a particle by code. Returns ErrNotFound if not exists.
func (s *ParticleStore) GetByID(ctx context.Context, id int) (*domain.Particle, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+particleColumns+` FROM particles WHERE code = $1`, id)
	p, err := scanParticle(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get particle by code: %w", err)
	}
	return p, nil
}

// GetByName retrieves a particle by name. Returns ErrNotFound if not exists.
func (s *ParticleStore) GetByName(ctx context.Context, name string) (*domain.Particle, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+particleColumns+` FROM particles WHERE name = $1`, name)
	p, err := scanParticle(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get particle by name: %w", err)
	}
	return p, nil
}

// List retrieves all particles ordered by code ASC.
func (s *ParticleStore) List(ctx context.Context) ([]*domain.Particle, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+particleColumns+` FROM particles ORDER BY code ASC`)
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
	rows, err := s.pool.Query(ctx, `
		SELECT products, fraction
		FROM particle_decays
		WHERE parent_code = $1
		ORDER BY channel_index ASC
	`, parentID)
	if err != nil {
		return nil, fmt.Errorf("get decays: %w", err)
	}
	defer rows.Close()

	channels := []domain.DecayChannel{}
	for rows.Next() {
		var (
			products []int32
			fraction float64
		)
		if err := rows.Scan(&products, &fraction); err != nil {
			return nil, fmt.Errorf("scan decay row: %w", err)
		}
		channels = append(channels, domain.DecayChannel{Products: fromInt32s(products), Fraction: fraction})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decay rows: %w", err)
	}
	return channels, nil
}

// scanParticle scans a single row into a Particle.
func scanParticle(row pgx.Row) (*domain.Particle, error) {
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

func toInt32s(ids []int) []int32 {
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = int32(id)
	}
	return out
}

func fromInt32s(ids []int32) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
