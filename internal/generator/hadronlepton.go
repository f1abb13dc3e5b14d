package generator

import (
	"math/rand/v2"

	"collider-lab/internal/domain"
	"collider-lab/internal/registry"
	"collider-lab/internal/weight"
)

// Lepton-pair production probability in deep-inelastic scattering.
const pairProbability = 0.3

// HadronLepton models deep-inelastic scattering: the hadron fragments into
// two or three light hadrons while the lepton scatters or radiates a pair.
type HadronLepton struct {
	base
}

// NewHadronLepton creates the hadron-lepton sampler.
func NewHadronLepton(reg *registry.Registry, attempts int) *HadronLepton {
	return &HadronLepton{base: newBase(reg, attempts)}
}

// Channel returns domain.ChannelHadronLepton.
func (g *HadronLepton) Channel() domain.Channel {
	return domain.ChannelHadronLepton
}

// Generate runs the sampler. The seed pair is (first fragment, lepton).
func (g *HadronLepton) Generate(in *Input) (*Outcome, error) {
	hadron, lepton := in.First, in.Second
	if !hadron.IsHadron() {
		hadron, lepton = lepton, hadron
	}
	if hadron.Quarks == "" {
		return nil, ErrNoQuarkContent
	}

	fragments, err := weight.Normalized(g.reg.Hadrons(), in.SqrtS, domain.ChannelHadronLepton, in.Src)
	if err != nil {
		return nil, err
	}
	antilepton, hasAnti := g.reg.Particle(-lepton.ID)

	rng := rand.New(in.Src)
	for attempt := 1; attempt <= g.attempts; attempt++ {
		frags := fragments.SampleN(fragmentCount(rng))

		candidate := make([]*domain.Particle, 0, len(frags)+2)
		candidate = append(candidate, frags...)
		candidate = append(candidate, lepton)
		if rng.Float64() < pairProbability && hasAnti {
			candidate = append(candidate, antilepton)
		}

		if g.accept(candidate, in, isHadronOrLepton) {
			return &Outcome{
				Products: candidate,
				Seed:     [2]*domain.Particle{frags[0], lepton},
				Attempts: attempt,
			}, nil
		}
	}
	return nil, &ExhaustedError{Channel: g.Channel(), Attempts: g.attempts}
}

var _ Generator = (*HadronLepton)(nil)
