package catalog

import (
	"context"
	"errors"
	"fmt"

	"collider-lab/internal/domain"
	"collider-lab/internal/storage"
)

// StoreProvider adapts a persisted particle store into a Provider.
type StoreProvider struct {
	store storage.ParticleStore
}

// NewStoreProvider creates a provider backed by store.
func NewStoreProvider(store storage.ParticleStore) *StoreProvider {
	return &StoreProvider{store: store}
}

// ListParticles returns every stored particle code.
func (s *StoreProvider) ListParticles(ctx context.Context) ([]int, error) {
	particles, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list particles: %w", err)
	}
	ids := make([]int, len(particles))
	for i, p := range particles {
		ids[i] = p.ID
	}
	return ids, nil
}

// GetByID returns the stored record for code id.
func (s *StoreProvider) GetByID(ctx context.Context, id int) (*domain.Particle, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, fmt.Sprintf("code %d", id))
	}
	return p, nil
}

// GetByName returns the stored record with the given name.
func (s *StoreProvider) GetByName(ctx context.Context, name string) (*domain.Particle, error) {
	p, err := s.store.GetByName(ctx, name)
	if err != nil {
		return nil, mapStoreError(err, fmt.Sprintf("name %q", name))
	}
	return p, nil
}

// ExclusiveBranchingFractions returns the stored decay table of p.
func (s *StoreProvider) ExclusiveBranchingFractions(ctx context.Context, p *domain.Particle) ([]domain.DecayChannel, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil record", ErrParticleNotFound)
	}
	chans, err := s.store.DecaysFor(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("decays for %d: %w", p.ID, err)
	}
	return chans, nil
}

func mapStoreError(err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrParticleNotFound, what)
	}
	return fmt.Errorf("lookup %s: %w", what, err)
}

// Import writes every record and decay table of m into store.
func Import(ctx context.Context, store storage.ParticleStore, m *Memory) (int, error) {
	particles := make([]*domain.Particle, 0, len(m.order))
	for _, id := range m.order {
		particles = append(particles, m.byID[id])
	}
	if err := store.InsertBulk(ctx, particles); err != nil {
		return 0, fmt.Errorf("insert particles: %w", err)
	}
	for _, id := range m.order {
		chans := m.decays[id]
		if len(chans) == 0 {
			continue
		}
		if err := store.InsertDecays(ctx, id, chans); err != nil {
			return 0, fmt.Errorf("insert decays for %d: %w", id, err)
		}
	}
	return len(particles), nil
}

var _ Provider = (*StoreProvider)(nil)
