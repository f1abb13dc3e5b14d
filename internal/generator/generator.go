// Package generator implements the channel-specific rejection samplers that
// propose final states for an incoming particle pair.
package generator

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"collider-lab/internal/conservation"
	"collider-lab/internal/domain"
	"collider-lab/internal/registry"
)

// Default attempt ceilings per channel.
const (
	DefaultHadronHadronAttempts = 10000
	DefaultHadronLeptonAttempts = 5000
	DefaultLeptonLeptonAttempts = 5000
)

var (
	// ErrUnsupportedChannel is returned for channels without a generator.
	ErrUnsupportedChannel = errors.New("channel not supported")

	// ErrNoChannel is returned when the pair classifies as unknown.
	ErrNoChannel = fmt.Errorf("no channel available: %w", ErrUnsupportedChannel)

	// ErrNoResonance is returned when no resonance lies below the formation ceiling.
	ErrNoResonance = errors.New("no resonance available at this energy")

	// ErrNoQuarkContent is returned when the incoming hadron has no quark content to fragment.
	ErrNoQuarkContent = errors.New("hadron has no quark content")

	// ErrSamplingExhausted is matched by *ExhaustedError.
	ErrSamplingExhausted = errors.New("rejection sampling exhausted")
)

// ExhaustedError reports that the attempt ceiling was reached without a
// conserving candidate.
type ExhaustedError struct {
	Channel  domain.Channel
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: no conserving final state after %d attempts", e.Channel, e.Attempts)
}

// Unwrap returns ErrSamplingExhausted.
func (e *ExhaustedError) Unwrap() error {
	return ErrSamplingExhausted
}

// Input is one generation request after classification.
type Input struct {
	First, Second *domain.Particle
	SqrtS         float64
	Initial       domain.InitialState
	Src           rand.Source
}

// Outcome is an accepted final state.
type Outcome struct {
	Products []*domain.Particle
	Seed     [2]*domain.Particle
	Attempts int
}

// IDs returns the product codes in order.
func (o *Outcome) IDs() []int {
	ids := make([]int, len(o.Products))
	for i, p := range o.Products {
		ids[i] = p.ID
	}
	return ids
}

// SeedPair returns the seed as codes.
func (o *Outcome) SeedPair() domain.SeedPair {
	return domain.SeedPair{ID1: o.Seed[0].ID, ID2: o.Seed[1].ID}
}

// Generator proposes final states for one channel.
type Generator interface {
	Channel() domain.Channel
	Generate(in *Input) (*Outcome, error)
}

// Options configures attempt ceilings. Zero values use the defaults.
type Options struct {
	HadronHadronAttempts int
	HadronLeptonAttempts int
	LeptonLeptonAttempts int
}

// DefaultOptions returns the default ceilings.
func DefaultOptions() Options {
	return Options{
		HadronHadronAttempts: DefaultHadronHadronAttempts,
		HadronLeptonAttempts: DefaultHadronLeptonAttempts,
		LeptonLeptonAttempts: DefaultLeptonLeptonAttempts,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HadronHadronAttempts <= 0 {
		o.HadronHadronAttempts = d.HadronHadronAttempts
	}
	if o.HadronLeptonAttempts <= 0 {
		o.HadronLeptonAttempts = d.HadronLeptonAttempts
	}
	if o.LeptonLeptonAttempts <= 0 {
		o.LeptonLeptonAttempts = d.LeptonLeptonAttempts
	}
	return o
}

// Set holds one generator per supported channel.
type Set struct {
	HadronHadron *HadronHadron
	HadronLepton *HadronLepton
	LeptonLepton *LeptonLepton
}

// NewSet creates the generators for every supported channel over reg.
func NewSet(reg *registry.Registry, opts Options) *Set {
	opts = opts.withDefaults()
	return &Set{
		HadronHadron: NewHadronHadron(reg, opts.HadronHadronAttempts),
		HadronLepton: NewHadronLepton(reg, opts.HadronLeptonAttempts),
		LeptonLepton: NewLeptonLepton(reg, opts.LeptonLeptonAttempts),
	}
}

// base carries what every sampler needs.
type base struct {
	reg      *registry.Registry
	checker  *conservation.Checker
	attempts int
}

func newBase(reg *registry.Registry, attempts int) base {
	return base{reg: reg, checker: conservation.NewChecker(reg), attempts: attempts}
}

func (b base) accept(candidates []*domain.Particle, in *Input, valid func(*domain.Particle) bool) bool {
	for _, p := range candidates {
		if !valid(p) {
			return false
		}
	}
	return b.checker.IsConserved(candidates, in.Initial, in.SqrtS)
}

func isHadron(p *domain.Particle) bool { return p.IsHadron() }

func isHadronOrLepton(p *domain.Particle) bool { return p.IsHadron() || p.IsLepton() }

func isKnownType(p *domain.Particle) bool { return p.Type != domain.TypeUnknown }

// fragmentCount returns 2 or 3 with equal probability.
func fragmentCount(rng *rand.Rand) int {
	return 2 + rng.IntN(2)
}
