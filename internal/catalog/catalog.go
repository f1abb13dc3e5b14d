// Package catalog serves particle records to the event generator.
// It provides the read-only Provider interface, an in-memory implementation
// built from catalog files, and an adapter over persisted particle stores.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"collider-lab/internal/domain"
)

// ErrParticleNotFound is returned when a lookup does not resolve.
var ErrParticleNotFound = errors.New("particle not found")

// Provider is the narrow read-only interface the generator consumes.
type Provider interface {
	// ListParticles returns every known particle code.
	ListParticles(ctx context.Context) ([]int, error)

	// GetByID returns the record for code id. Returns ErrParticleNotFound if unknown.
	GetByID(ctx context.Context, id int) (*domain.Particle, error)

	// GetByName returns the record with the given name. Returns ErrParticleNotFound if unknown.
	GetByName(ctx context.Context, name string) (*domain.Particle, error)

	// ExclusiveBranchingFractions returns the decay channels of p.
	// Stable particles return an empty list.
	ExclusiveBranchingFractions(ctx context.Context, p *domain.Particle) ([]domain.DecayChannel, error)
}

// ResonanceWidth is the width above which a particle decays strongly and is
// treated as a resonance, GeV.
const ResonanceWidth = 1e-5

var resonanceMarkers = []string{"Delta", "N(", "Sigma(", "Lambda(", "Xi("}

// IsResonance reports whether p is a short-lived decay source rather than a
// final-state product.
func IsResonance(p *domain.Particle) bool {
	if p.Width > ResonanceWidth {
		return true
	}
	if strings.Contains(p.Name, "(") && strings.Contains(p.Name, ")") {
		return true
	}
	for _, m := range resonanceMarkers {
		if strings.Contains(p.Name, m) {
			return true
		}
	}
	return false
}

// Memory is an immutable in-memory Provider.
type Memory struct {
	order  []int
	byID   map[int]*domain.Particle
	byName map[string]*domain.Particle
	decays map[int][]domain.DecayChannel
}

// NewMemory creates a provider from records and their decay tables.
// Returns an error on duplicate codes or names.
func NewMemory(particles []*domain.Particle, decays map[int][]domain.DecayChannel) (*Memory, error) {
	m := &Memory{
		byID:   make(map[int]*domain.Particle, len(particles)),
		byName: make(map[string]*domain.Particle, len(particles)),
		decays: make(map[int][]domain.DecayChannel, len(decays)),
	}

	for _, p := range particles {
		if p == nil || p.ID == 0 {
			return nil, fmt.Errorf("particle without code")
		}
		if _, exists := m.byID[p.ID]; exists {
			return nil, fmt.Errorf("duplicate particle code %d", p.ID)
		}
		cp := *p
		m.byID[p.ID] = &cp
		m.order = append(m.order, p.ID)
		if p.Name != "" {
			if _, exists := m.byName[p.Name]; exists {
				return nil, fmt.Errorf("duplicate particle name %q", p.Name)
			}
			m.byName[p.Name] = &cp
		}
	}

	for id, chans := range decays {
		m.decays[id] = copyChannels(chans)
	}

	sort.Ints(m.order)
	return m, nil
}

// ListParticles returns every known code in ascending order.
func (m *Memory) ListParticles(_ context.Context) ([]int, error) {
	out := make([]int, len(m.order))
	copy(out, m.order)
	return out, nil
}

// GetByID returns the record for code id.
func (m *Memory) GetByID(_ context.Context, id int) (*domain.Particle, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: code %d", ErrParticleNotFound, id)
	}
	cp := *p
	return &cp, nil
}

// GetByName returns the record with the given name.
func (m *Memory) GetByName(_ context.Context, name string) (*domain.Particle, error) {
	p, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: name %q", ErrParticleNotFound, name)
	}
	cp := *p
	return &cp, nil
}

// ExclusiveBranchingFractions returns the decay channels of p.
func (m *Memory) ExclusiveBranchingFractions(_ context.Context, p *domain.Particle) ([]domain.DecayChannel, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil record", ErrParticleNotFound)
	}
	return copyChannels(m.decays[p.ID]), nil
}

// Len returns the number of records.
func (m *Memory) Len() int {
	return len(m.order)
}

func copyChannels(chans []domain.DecayChannel) []domain.DecayChannel {
	if len(chans) == 0 {
		return nil
	}
	out := make([]domain.DecayChannel, len(chans))
	for i, c := range chans {
		products := make([]int, len(c.Products))
		copy(products, c.Products)
		out[i] = domain.DecayChannel{Products: products, Fraction: c.Fraction}
	}
	return out
}

var _ Provider = (*Memory)(nil)
