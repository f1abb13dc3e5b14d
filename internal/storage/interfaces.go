package storage

import (
	"context"
	"fmt"

	"collider-lab/internal/domain"
)

// ParticleStore provides access to particles and particle_decays storage.
type ParticleStore interface {
	// InsertBulk adds multiple particles atomically. Fails entire batch on any duplicate code.
	InsertBulk(ctx context.Context, particles []*domain.Particle) error

	// InsertDecays stores the decay table of a particle. Returns ErrDuplicateKey if
	// the particle already has decays, ErrNotFound if the particle does not exist.
	InsertDecays(ctx context.Context, parentID int, channels []domain.DecayChannel) error

	// GetByID retrieves a particle by code. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int) (*domain.Particle, error)

	// GetByName retrieves a particle by name. Returns ErrNotFound if not exists.
	GetByName(ctx context.Context, name string) (*domain.Particle, error)

	// List retrieves all particles ordered by code ASC.
	List(ctx context.Context) ([]*domain.Particle, error)

	// DecaysFor retrieves the decay channels of a particle in insertion order.
	// Returns an empty slice for stable particles.
	DecaysFor(ctx context.Context, parentID int) ([]domain.DecayChannel, error)
}

// EventFilter narrows EventStore.List results. Zero values match everything.
type EventFilter struct {
	RunID   string
	Channel domain.Channel
	Status  domain.EventStatus
	Limit   int
}

// Validate rejects an unknown channel or a negative limit.
func (f EventFilter) Validate() error {
	if f.Channel != "" && !f.Channel.IsValid() {
		return fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, f.Channel)
	}
	if f.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidInput, f.Limit)
	}
	return nil
}

// EventStore provides access to event_records storage.
type EventStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, r *domain.EventRecord) error

	// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, records []*domain.EventRecord) error

	// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, eventID string) (*domain.EventRecord, error)

	// GetByRun retrieves all records of a run, ordered by created_at ASC, event_id ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.EventRecord, error)

	// List retrieves records matching the filter, ordered by created_at ASC, event_id ASC.
	List(ctx context.Context, f EventFilter) ([]*domain.EventRecord, error)
}

// AggregateStore provides access to channel_aggregates storage.
type AggregateStore interface {
	// Insert adds a new aggregate. Returns ErrDuplicateKey if (run_id, id1, id2, beam_energy) exists.
	Insert(ctx context.Context, a *domain.ChannelAggregate) error

	// GetByRun retrieves all aggregates of a run, ordered by (id1, id2, beam_energy).
	GetByRun(ctx context.Context, runID string) ([]*domain.ChannelAggregate, error)
}
