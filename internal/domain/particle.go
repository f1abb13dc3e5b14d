package domain

// ParticleType is the coarse type tag used for channel classification.
type ParticleType string

const (
	TypeBaryon     ParticleType = "baryon"
	TypeMeson      ParticleType = "meson"
	TypeLepton     ParticleType = "lepton"
	TypeGaugeBoson ParticleType = "gauge_boson"
	TypeUnknown    ParticleType = "unknown"
)

// String returns the string representation of ParticleType.
func (t ParticleType) String() string {
	return string(t)
}

// IsHadron reports whether the tag is baryon or meson.
func (t ParticleType) IsHadron() bool {
	return t == TypeBaryon || t == TypeMeson
}

// IsValid checks if the type is a known value.
func (t ParticleType) IsValid() bool {
	switch t {
	case TypeBaryon, TypeMeson, TypeLepton, TypeGaugeBoson, TypeUnknown:
		return true
	}
	return false
}

// Particle is a read-only record served by the particle property provider.
type Particle struct {
	ID     int     // Monte-Carlo particle code, negative for antiparticles
	Name   string  // provider name, e.g. "Delta(1232)++"
	Mass   float64 // GeV
	Charge float64 // units of e
	Spin   float64 // J
	Width  float64 // GeV, 0 for stable
	Quarks string  // flavor letters, lowercase quark / uppercase antiquark
	Type   ParticleType
}

// IsHadron reports whether the particle is a baryon or meson.
func (p *Particle) IsHadron() bool {
	return p.Type.IsHadron()
}

// IsLepton reports whether the particle is a lepton.
func (p *Particle) IsLepton() bool {
	return p.Type == TypeLepton
}

// DecayChannel is one exclusive decay mode of a resonance.
type DecayChannel struct {
	Products []int   // product particle codes
	Fraction float64 // branching fraction
}
