package generator

import (
	"math/rand/v2"

	"collider-lab/internal/domain"
	"collider-lab/internal/pdgid"
	"collider-lab/internal/registry"
	"collider-lab/internal/weight"
)

const (
	photonID = 22

	// radiationProbability is the chance of a radiated photon in elastic scattering.
	radiationProbability = 0.3

	// radiationThreshold is the sqrt(s) above which elastic scattering may radiate, GeV.
	radiationThreshold = 1.0
)

// chargedLeptonPairs are the lepton-antilepton pairs annihilation may produce.
var chargedLeptonPairs = [][2]int{{11, -11}, {13, -13}, {15, -15}}

type annihilationMode int

const (
	modePhotons annihilationMode = iota
	modeLeptons
	modeHadrons
	numModes
)

// LeptonLepton handles annihilation of a lepton with its antiparticle and
// elastic scattering of any other lepton pair.
type LeptonLepton struct {
	base
}

// NewLeptonLepton creates the lepton-lepton sampler.
func NewLeptonLepton(reg *registry.Registry, attempts int) *LeptonLepton {
	return &LeptonLepton{base: newBase(reg, attempts)}
}

// Channel returns domain.ChannelLeptonLepton.
func (g *LeptonLepton) Channel() domain.Channel {
	return domain.ChannelLeptonLepton
}

// Generate runs the sampler.
func (g *LeptonLepton) Generate(in *Input) (*Outcome, error) {
	if in.Second.ID == -in.First.ID {
		return g.annihilate(in)
	}
	return g.scatter(in)
}

// annihilate tries a photon pair, a lepton pair of another generation or
// two to three hadrons per attempt. The seed pair is (first, last) product.
func (g *LeptonLepton) annihilate(in *Input) (*Outcome, error) {
	photon, hasPhoton := g.reg.Particle(photonID)
	pairs := g.otherGenerations(in.First.ID)
	hadrons, err := weight.Normalized(g.reg.Hadrons(), in.SqrtS, domain.ChannelLeptonLepton, in.Src)
	if err != nil {
		hadrons = nil
	}

	rng := rand.New(in.Src)
	for attempt := 1; attempt <= g.attempts; attempt++ {
		var candidate []*domain.Particle
		switch annihilationMode(rng.IntN(int(numModes))) {
		case modePhotons:
			if !hasPhoton {
				continue
			}
			candidate = []*domain.Particle{photon, photon}
		case modeLeptons:
			if len(pairs) == 0 {
				continue
			}
			pair := pairs[rng.IntN(len(pairs))]
			candidate = []*domain.Particle{pair[0], pair[1]}
		case modeHadrons:
			if hadrons == nil {
				continue
			}
			candidate = hadrons.SampleN(fragmentCount(rng))
		}

		if g.accept(candidate, in, isKnownType) {
			return &Outcome{
				Products: candidate,
				Seed:     [2]*domain.Particle{candidate[0], candidate[len(candidate)-1]},
				Attempts: attempt,
			}, nil
		}
	}
	return nil, &ExhaustedError{Channel: g.Channel(), Attempts: g.attempts}
}

// scatter keeps both leptons and may radiate a photon. The seed pair is the
// two scattered leptons.
func (g *LeptonLepton) scatter(in *Input) (*Outcome, error) {
	photon, hasPhoton := g.reg.Particle(photonID)

	rng := rand.New(in.Src)
	for attempt := 1; attempt <= g.attempts; attempt++ {
		candidate := []*domain.Particle{in.First, in.Second}
		if rng.Float64() < radiationProbability && in.SqrtS > radiationThreshold && hasPhoton {
			candidate = append(candidate, photon)
		}

		if g.accept(candidate, in, isKnownType) {
			return &Outcome{
				Products: candidate,
				Seed:     [2]*domain.Particle{candidate[0], candidate[1]},
				Attempts: attempt,
			}, nil
		}
	}
	return nil, &ExhaustedError{Channel: g.Channel(), Attempts: g.attempts}
}

// otherGenerations returns the known charged lepton pairs outside the
// family of id, so a neutrino pair never yields its own charged partner.
func (g *LeptonLepton) otherGenerations(id int) [][2]*domain.Particle {
	gen := pdgid.LeptonGeneration(id)
	var out [][2]*domain.Particle
	for _, pair := range chargedLeptonPairs {
		if pdgid.LeptonGeneration(pair[0]) == gen {
			continue
		}
		l, ok1 := g.reg.Particle(pair[0])
		anti, ok2 := g.reg.Particle(pair[1])
		if ok1 && ok2 {
			out = append(out, [2]*domain.Particle{l, anti})
		}
	}
	return out
}

var _ Generator = (*LeptonLepton)(nil)
