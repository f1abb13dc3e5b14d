package generator

import (
	"math/rand/v2"

	"collider-lab/internal/domain"
	"collider-lab/internal/registry"
	"collider-lab/internal/weight"
)

// ResonanceCeiling is the largest resonance mass, relative to sqrt(s), that can form.
const ResonanceCeiling = 0.9

// HadronHadron forms a resonance and a spectator light hadron, then tries
// every decay channel of the resonance.
type HadronHadron struct {
	base
}

// NewHadronHadron creates the hadron-hadron sampler.
func NewHadronHadron(reg *registry.Registry, attempts int) *HadronHadron {
	return &HadronHadron{base: newBase(reg, attempts)}
}

// Channel returns domain.ChannelHadronHadron.
func (g *HadronHadron) Channel() domain.Channel {
	return domain.ChannelHadronHadron
}

// Generate runs the sampler. The seed pair is (light hadron, resonance).
func (g *HadronHadron) Generate(in *Input) (*Outcome, error) {
	resonances := g.reg.ResonancesBelow(ResonanceCeiling * in.SqrtS)
	if len(resonances) == 0 {
		return nil, ErrNoResonance
	}
	light := weight.Reachable(g.reg.Hadrons(), in.SqrtS, domain.ChannelHadronHadron)
	if len(light) == 0 {
		return nil, weight.ErrNoParticlesAvailable
	}

	rng := rand.New(in.Src)
	for attempt := 1; attempt <= g.attempts; attempt++ {
		spectator := light[rng.IntN(len(light))]
		resonance := resonances[rng.IntN(len(resonances))]

		for _, decay := range g.reg.Decays(resonance.ID) {
			candidate := make([]*domain.Particle, 0, len(decay.Products)+1)
			candidate = append(candidate, decay.Products...)
			candidate = append(candidate, spectator)

			if g.accept(candidate, in, isHadron) {
				return &Outcome{
					Products: candidate,
					Seed:     [2]*domain.Particle{spectator, resonance},
					Attempts: attempt,
				}, nil
			}
		}
	}
	return nil, &ExhaustedError{Channel: g.Channel(), Attempts: g.attempts}
}

var _ Generator = (*HadronHadron)(nil)
