// Package weight implements the thermal-statistical weighting model used to
// pick final-state particles.
package weight

import (
	"errors"
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"collider-lab/internal/domain"
)

// Model constants.
const (
	Temperature        = 0.16 // GeV
	StrangeSuppression = 0.3
	CharmSuppression   = 0.01

	// MaxMassFraction is the largest mass, relative to sqrt(s), with non-zero weight.
	MaxMassFraction = 0.7

	// MinWeight is the weight below which a particle counts as unreachable.
	MinWeight = 1e-12

	NoiseMean  = 1.0
	NoiseSigma = 0.1
	NoiseMin   = 0.5
	NoiseMax   = 2.0
)

const (
	pdgProton  = 2212
	pdgNeutron = 2112
	pdgPhoton  = 22

	nucleonBoost      = 5.0
	leptonFactor      = 2.0
	photonFactor      = 10.0
	bosonFactor       = 0.1
	hadronLeptonBoost = 2.0
	leptonPairBoost   = 3.0
	photonPairBoost   = 5.0
)

// ErrNoParticlesAvailable is returned when no particle in a pool is
// kinematically reachable at the given energy.
var ErrNoParticlesAvailable = errors.New("no particles available at this energy")

// energyCeilings lists (sqrt(s) bound, max mass) pairs, tightest last.
var energyCeilings = []struct {
	below   float64
	maxMass float64
}{
	{10, 2.0},
	{5, 1.5},
	{2, 1.0},
}

// Weight returns the unnormalized weight of p at energy sqrtS in channel ch.
func Weight(p *domain.Particle, sqrtS float64, ch domain.Channel) float64 {
	if !Allowed(p.Mass, sqrtS) {
		return 0
	}

	boltzmann := math.Exp(-p.Mass / Temperature)
	degeneracy := 2*p.Spin + 1

	var w float64
	switch {
	case p.Type.IsHadron():
		w = degeneracy * boltzmann
		if ns := strings.Count(strings.ToLower(p.Quarks), "s"); ns > 0 {
			w *= math.Pow(StrangeSuppression, float64(ns))
		}
		if nc := strings.Count(strings.ToLower(p.Quarks), "c"); nc > 0 {
			w *= math.Pow(CharmSuppression, float64(nc))
		}
		if p.ID == pdgProton || p.ID == pdgNeutron {
			w *= nucleonBoost
		}
		if ch == domain.ChannelHadronLepton {
			w *= hadronLeptonBoost
		}
	case p.Type == domain.TypeLepton:
		w = degeneracy * boltzmann * leptonFactor
		if ch == domain.ChannelLeptonLepton {
			w *= leptonPairBoost
		}
	case p.Type == domain.TypeGaugeBoson && p.ID == pdgPhoton:
		w = boltzmann * photonFactor
		if ch == domain.ChannelLeptonLepton {
			w *= photonPairBoost
		}
	case p.Type == domain.TypeGaugeBoson:
		w = boltzmann * bosonFactor
	default:
		return 0
	}

	if w < MinWeight {
		return 0
	}
	return w
}

// Allowed reports whether a particle of the given mass passes the hard
// kinematic cutoffs at energy sqrtS.
func Allowed(mass, sqrtS float64) bool {
	if mass > MaxMassFraction*sqrtS {
		return false
	}
	for _, c := range energyCeilings {
		if sqrtS < c.below && mass > c.maxMass {
			return false
		}
	}
	return true
}

// Reachable returns the members of pool with non-zero weight, preserving order.
func Reachable(pool []*domain.Particle, sqrtS float64, ch domain.Channel) []*domain.Particle {
	out := make([]*domain.Particle, 0, len(pool))
	for _, p := range pool {
		if Weight(p, sqrtS, ch) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// Distribution is a normalized weight vector over a filtered pool.
type Distribution struct {
	Particles     []*domain.Particle
	Probabilities []float64

	cat distuv.Categorical
}

// Len returns the number of particles with non-zero probability.
func (d *Distribution) Len() int {
	return len(d.Particles)
}

// Sample draws one particle according to the probabilities.
func (d *Distribution) Sample() *domain.Particle {
	return d.Particles[int(d.cat.Rand())]
}

// SampleN draws n particles independently.
func (d *Distribution) SampleN(n int) []*domain.Particle {
	out := make([]*domain.Particle, n)
	for i := range out {
		out[i] = d.Sample()
	}
	return out
}

// Normalized filters zero-weight particles out of pool, applies clamped
// multiplicative Gaussian noise per particle and normalizes the result to
// sum to 1. src drives both the noise and later sampling.
func Normalized(pool []*domain.Particle, sqrtS float64, ch domain.Channel, src rand.Source) (*Distribution, error) {
	particles := make([]*domain.Particle, 0, len(pool))
	weights := make([]float64, 0, len(pool))
	for _, p := range pool {
		if w := Weight(p, sqrtS, ch); w > 0 {
			particles = append(particles, p)
			weights = append(weights, w)
		}
	}
	if len(particles) == 0 {
		return nil, ErrNoParticlesAvailable
	}

	noise := distuv.Normal{Mu: NoiseMean, Sigma: NoiseSigma, Src: src}
	for i := range weights {
		weights[i] *= clamp(noise.Rand(), NoiseMin, NoiseMax)
	}
	floats.Scale(1/floats.Sum(weights), weights)

	return &Distribution{
		Particles:     particles,
		Probabilities: weights,
		cat:           distuv.NewCategorical(weights, src),
	}, nil
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
