package memory

import (
	"context"
	"sort"
	"sync"

	"collider-lab/internal/domain"
	"collider-lab/internal/storage"
)

// ParticleStore is an in-memory implementation of storage.ParticleStore.
type ParticleStore struct {
	mu     sync.RWMutex
	data   map[int]*domain.Particle      // keyed by code
	names  map[string]int                // name -> code
	decays map[int][]domain.DecayChannel // keyed by parent code
}

// NewParticleStore creates a new in-memory particle store.
func NewParticleStore() *ParticleStore {
	return &ParticleStore{
		data:   make(map[int]*domain.Particle),
		names:  make(map[string]int),
		decays: make(map[int][]domain.DecayChannel),
	}
}

// InsertBulk adds multiple particles atomically. Fails entire batch on any duplicate code.
func (s *ParticleStore) InsertBulk(_ context.Context, particles []*domain.Particle) error {
	if len(particles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[int]struct{}, len(particles))
	batchNames := make(map[string]struct{}, len(particles))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range particles {
		if p == nil || p.ID == 0 || p.Name == "" || !p.Type.IsValid() {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[p.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := s.names[p.Name]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[p.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchNames[p.Name]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[p.ID] = struct{}{}
		batchNames[p.Name] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range particles {
		copy := *p
		s.data[p.ID] = &copy
		s.names[p.Name] = p.ID
	}

	return nil
}

// InsertDecays stores the decay table of a particle.
func (s *ParticleStore) InsertDecays(_ context.Context, parentID int, channels []domain.DecayChannel) error {
	if len(channels) == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[parentID]; !exists {
		return storage.ErrNotFound
	}
	if _, exists := s.decays[parentID]; exists {
		return storage.ErrDuplicateKey
	}

	s.decays[parentID] = copyChannels(channels)
	return nil
}

// GetByID retrieves a particle by code. Returns ErrNotFound if not exists.
func (s *ParticleStore) GetByID(_ context.Context, id int) (*domain.Particle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *p
	return &copy, nil
}

// GetByName retrieves a particle by name. Returns ErrNotFound if not exists.
func (s *ParticleStore) GetByName(_ context.Context, name string) (*domain.Particle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.names[name]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *s.data[id]
	return &copy, nil
}

// List retrieves all particles ordered by code ASC.
func (s *ParticleStore) List(_ context.Context) ([]*domain.Particle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Particle, 0, len(s.data))
	for _, p := range s.data {
		copy := *p
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// DecaysFor retrieves the decay channels of a particle in insertion order.
func (s *ParticleStore) DecaysFor(_ context.Context, parentID int) ([]domain.DecayChannel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyChannels(s.decays[parentID]), nil
}

func copyChannels(in []domain.DecayChannel) []domain.DecayChannel {
	out := make([]domain.DecayChannel, len(in))
	for i, c := range in {
		products := make([]int, len(c.Products))
		copy(products, c.Products)
		out[i] = domain.DecayChannel{Products: products, Fraction: c.Fraction}
	}
	return out
}

var _ storage.ParticleStore = (*ParticleStore)(nil)
