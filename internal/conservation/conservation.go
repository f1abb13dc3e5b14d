// Package conservation validates candidate final states against the initial
// state's quantum numbers and the kinematic mass budget.
package conservation

import (
	"fmt"
	"math"

	"collider-lab/internal/domain"
)

const (
	// MassBudget is the largest total rest mass, relative to sqrt(s), a final state may carry.
	MassBudget = 1.1

	// Tolerance is the largest accepted difference per quantum number.
	Tolerance = 1e-9
)

// Source resolves the quantum numbers of a particle code.
type Source interface {
	Numbers(id int) domain.QuantumNumbers
}

// SourceFunc adapts a function to Source.
type SourceFunc func(id int) domain.QuantumNumbers

// Numbers calls f(id).
func (f SourceFunc) Numbers(id int) domain.QuantumNumbers { return f(id) }

// Violation describes why a candidate was rejected.
type Violation struct {
	Key       domain.QuantumKey // empty for mass violations
	Want, Got float64
	Mass      float64
	MassLimit float64
}

func (v *Violation) Error() string {
	if v.Key == "" {
		return fmt.Sprintf("total mass %.4f exceeds budget %.4f", v.Mass, v.MassLimit)
	}
	return fmt.Sprintf("%s not conserved: want %g, got %g", v.Key, v.Want, v.Got)
}

// Checker validates candidate final states.
type Checker struct {
	src Source
}

// NewChecker creates a checker resolving quantum numbers through src.
func NewChecker(src Source) *Checker {
	return &Checker{src: src}
}

// Check returns nil if candidates conserve every tracked key of initial and
// fit the mass budget, otherwise the first violation found.
func (c *Checker) Check(candidates []*domain.Particle, initial domain.InitialState, sqrtS float64) *Violation {
	mass := TotalMass(candidates)
	if limit := MassBudget * sqrtS; mass > limit {
		return &Violation{Mass: mass, MassLimit: limit}
	}

	final := c.Sum(candidates)
	for _, key := range initial.Keys {
		want, got := initial.Numbers.Get(key), final.Get(key)
		if math.Abs(want-got) > Tolerance {
			return &Violation{Key: key, Want: want, Got: got, Mass: mass}
		}
	}
	return nil
}

// IsConserved reports whether Check accepts the candidates.
func (c *Checker) IsConserved(candidates []*domain.Particle, initial domain.InitialState, sqrtS float64) bool {
	return c.Check(candidates, initial, sqrtS) == nil
}

// Sum returns the summed quantum numbers of candidates.
func (c *Checker) Sum(candidates []*domain.Particle) domain.QuantumNumbers {
	var total domain.QuantumNumbers
	for _, p := range candidates {
		total = total.Add(c.src.Numbers(p.ID))
	}
	return total
}

// TotalMass returns the summed rest mass of particles.
func TotalMass(particles []*domain.Particle) float64 {
	var m float64
	for _, p := range particles {
		m += p.Mass
	}
	return m
}

// NewInitialState sums the incoming vectors. Lepton numbers are tracked only
// when at least one incoming particle is a lepton.
func NewInitialState(a, b *domain.Particle, qa, qb domain.QuantumNumbers) domain.InitialState {
	keys := make([]domain.QuantumKey, 0, len(domain.HadronicKeys)+len(domain.LeptonKeys))
	keys = append(keys, domain.HadronicKeys...)
	if a.IsLepton() || b.IsLepton() {
		keys = append(keys, domain.LeptonKeys...)
	}
	return domain.InitialState{Numbers: qa.Add(qb), Keys: keys}
}
