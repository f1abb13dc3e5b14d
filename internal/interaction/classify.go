// Package interaction classifies an incoming particle pair into a channel.
package interaction

import "collider-lab/internal/domain"

// Classify maps the type tags of the two incoming particles to a channel.
// The mapping uses set semantics, so Classify(a, b) == Classify(b, a).
func Classify(t1, t2 domain.ParticleType) domain.Channel {
	hadrons := count(t1, t2, domain.ParticleType.IsHadron)
	leptons := count(t1, t2, is(domain.TypeLepton))
	bosons := count(t1, t2, is(domain.TypeGaugeBoson))

	switch {
	case hadrons == 2:
		return domain.ChannelHadronHadron
	case hadrons == 1 && leptons == 1:
		return domain.ChannelHadronLepton
	case leptons == 2:
		return domain.ChannelLeptonLepton
	case hadrons == 1 && bosons == 1:
		return domain.ChannelHadronBoson
	case leptons == 1 && bosons == 1:
		return domain.ChannelLeptonBoson
	default:
		return domain.ChannelUnknown
	}
}

// ClassifyParticles is Classify over two records.
func ClassifyParticles(a, b *domain.Particle) domain.Channel {
	return Classify(a.Type, b.Type)
}

func is(want domain.ParticleType) func(domain.ParticleType) bool {
	return func(t domain.ParticleType) bool { return t == want }
}

func count(t1, t2 domain.ParticleType, match func(domain.ParticleType) bool) int {
	n := 0
	if match(t1) {
		n++
	}
	if match(t2) {
		n++
	}
	return n
}
