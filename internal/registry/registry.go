// Package registry holds the particle metadata shared by every generation
// call: resolved records, precomputed quantum numbers, candidate pools and
// resonance decay tables. A Registry is immutable after Build.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"collider-lab/internal/catalog"
	"collider-lab/internal/domain"
	"collider-lab/internal/quantum"
)

// ErrEmptyCatalog is returned when the provider lists no usable particle.
var ErrEmptyCatalog = errors.New("catalog contains no usable particles")

// Decay is a decay channel with resolved product records.
type Decay struct {
	Products []*domain.Particle
	Fraction float64
}

// Stats summarizes a registry.
type Stats struct {
	Particles     int `json:"particles"`
	Hadrons       int `json:"hadrons"`
	Leptons       int `json:"leptons"`
	GaugeBosons   int `json:"gauge_bosons"`
	Resonances    int `json:"resonances"`
	DecayChannels int `json:"decay_channels"`
	Skipped       int `json:"skipped"`
}

// Registry is the read-only particle metadata cache.
type Registry struct {
	particles map[int]*domain.Particle
	numbers   map[int]domain.QuantumNumbers
	decays    map[int][]Decay

	hadrons    []*domain.Particle
	leptons    []*domain.Particle
	bosons     []*domain.Particle
	resonances []*domain.Particle
	pool       []*domain.Particle

	stats Stats
}

// Build resolves every particle the provider lists. Records that fail to
// resolve are skipped; a decay channel is dropped if any product fails to
// resolve.
func Build(ctx context.Context, provider catalog.Provider, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("registry")

	ids, err := provider.ListParticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list particles: %w", err)
	}

	engine := quantum.NewEngine(provider, logger)
	r := &Registry{
		particles: make(map[int]*domain.Particle, len(ids)),
		numbers:   make(map[int]domain.QuantumNumbers, len(ids)),
		decays:    make(map[int][]Decay),
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := provider.GetByID(ctx, id)
		if err != nil {
			r.stats.Skipped++
			logger.Debug("skipping unresolvable particle", zap.Int("id", id), zap.Error(err))
			continue
		}
		r.particles[p.ID] = p
		r.numbers[p.ID] = engine.Numbers(ctx, p.ID)
	}
	if len(r.particles) == 0 {
		return nil, ErrEmptyCatalog
	}

	for _, p := range r.sorted() {
		switch {
		case p.IsHadron() && catalog.IsResonance(p):
			r.resonances = append(r.resonances, p)
			r.loadDecays(ctx, provider, p, logger)
		case p.IsHadron():
			r.hadrons = append(r.hadrons, p)
		case p.IsLepton():
			r.leptons = append(r.leptons, p)
		case p.Type == domain.TypeGaugeBoson:
			r.bosons = append(r.bosons, p)
		}
	}

	r.pool = make([]*domain.Particle, 0, len(r.hadrons)+len(r.leptons)+len(r.bosons))
	r.pool = append(r.pool, r.hadrons...)
	r.pool = append(r.pool, r.leptons...)
	r.pool = append(r.pool, r.bosons...)

	r.stats.Particles = len(r.particles)
	r.stats.Hadrons = len(r.hadrons)
	r.stats.Leptons = len(r.leptons)
	r.stats.GaugeBosons = len(r.bosons)
	r.stats.Resonances = len(r.resonances)

	logger.Info("registry built",
		zap.Int("particles", r.stats.Particles),
		zap.Int("hadrons", r.stats.Hadrons),
		zap.Int("leptons", r.stats.Leptons),
		zap.Int("gauge_bosons", r.stats.GaugeBosons),
		zap.Int("resonances", r.stats.Resonances),
		zap.Int("decay_channels", r.stats.DecayChannels),
		zap.Int("skipped", r.stats.Skipped),
	)
	return r, nil
}

func (r *Registry) loadDecays(ctx context.Context, provider catalog.Provider, p *domain.Particle, logger *zap.Logger) {
	named, err := provider.GetByName(ctx, p.Name)
	if err != nil {
		logger.Debug("resonance not resolvable by name", zap.String("name", p.Name), zap.Error(err))
		return
	}
	channels, err := provider.ExclusiveBranchingFractions(ctx, named)
	if err != nil {
		logger.Debug("no branching fractions", zap.String("name", p.Name), zap.Error(err))
		return
	}

	var decays []Decay
	for _, ch := range channels {
		products, ok := r.resolve(ch.Products)
		if !ok {
			continue
		}
		decays = append(decays, Decay{Products: products, Fraction: ch.Fraction})
	}
	if len(decays) > 0 {
		r.decays[p.ID] = decays
		r.stats.DecayChannels += len(decays)
	}
}

func (r *Registry) resolve(ids []int) ([]*domain.Particle, bool) {
	if len(ids) == 0 {
		return nil, false
	}
	out := make([]*domain.Particle, len(ids))
	for i, id := range ids {
		p, ok := r.particles[id]
		if !ok {
			return nil, false
		}
		out[i] = p
	}
	return out, true
}

func (r *Registry) sorted() []*domain.Particle {
	out := make([]*domain.Particle, 0, len(r.particles))
	for _, p := range r.particles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Particle returns the record for id.
func (r *Registry) Particle(id int) (*domain.Particle, bool) {
	p, ok := r.particles[id]
	return p, ok
}

// Numbers returns the precomputed quantum numbers of id, or zeros if unknown.
func (r *Registry) Numbers(id int) domain.QuantumNumbers {
	return r.numbers[id]
}

// Hadrons returns the non-resonant baryons and mesons ordered by code.
func (r *Registry) Hadrons() []*domain.Particle { return r.hadrons }

// Resonances returns hadronic resonances ordered by code.
func (r *Registry) Resonances() []*domain.Particle { return r.resonances }

// Pool returns the general final-state pool: hadrons, leptons and gauge bosons.
func (r *Registry) Pool() []*domain.Particle { return r.pool }

// Decays returns the resolved decay channels of a resonance.
func (r *Registry) Decays(id int) []Decay { return r.decays[id] }

// Stats returns the registry summary.
func (r *Registry) Stats() Stats { return r.stats }

// ResonancesBelow returns resonances with a decay table and mass below limit.
func (r *Registry) ResonancesBelow(limit float64) []*domain.Particle {
	var out []*domain.Particle
	for _, p := range r.resonances {
		if p.Mass < limit && len(r.decays[p.ID]) > 0 {
			out = append(out, p)
		}
	}
	return out
}
