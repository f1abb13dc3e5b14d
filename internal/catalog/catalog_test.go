package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"collider-lab/internal/domain"
)

func TestEmbedded_Loads(t *testing.T) {
	m, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded failed: %v", err)
	}
	ctx := context.Background()

	ids, err := m.ListParticles(ctx)
	if err != nil {
		t.Fatalf("ListParticles failed: %v", err)
	}
	if len(ids) < 80 {
		t.Errorf("expected antiparticles to be synthesized, got %d records", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("ListParticles not sorted at %d", i)
		}
	}

	p, err := m.GetByID(ctx, 2212)
	if err != nil {
		t.Fatalf("GetByID(2212) failed: %v", err)
	}
	if p.Quarks != "uud" || p.Type != domain.TypeBaryon || p.Spin != 0.5 {
		t.Errorf("proton = %+v", p)
	}
}

func TestEmbedded_Antiparticles(t *testing.T) {
	m, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded failed: %v", err)
	}
	ctx := context.Background()

	pbar, err := m.GetByID(ctx, -2212)
	if err != nil {
		t.Fatalf("GetByID(-2212) failed: %v", err)
	}
	if pbar.Charge != -1 || pbar.Quarks != "UUD" || pbar.Name != "p~" {
		t.Errorf("antiproton = %+v", pbar)
	}

	if _, err := m.GetByID(ctx, -111); !errors.Is(err, ErrParticleNotFound) {
		t.Errorf("pi0 is self-conjugate, expected no -111 record, got %v", err)
	}

	adelta, err := m.GetByName(ctx, "Delta(1232)~--")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	chans, err := m.ExclusiveBranchingFractions(ctx, adelta)
	if err != nil {
		t.Fatalf("ExclusiveBranchingFractions failed: %v", err)
	}
	if len(chans) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(chans))
	}
	if chans[0].Products[0] != -2212 || chans[0].Products[1] != -211 {
		t.Errorf("conjugated products = %v", chans[0].Products)
	}
}

func TestEmbedded_DecayProductsResolve(t *testing.T) {
	m, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded failed: %v", err)
	}
	ctx := context.Background()

	for id, chans := range m.decays {
		for _, c := range chans {
			for _, prod := range c.Products {
				if _, err := m.GetByID(ctx, prod); err != nil {
					t.Errorf("decay product %d of %d does not resolve", prod, id)
				}
			}
		}
	}
}

func TestMemory_NotFound(t *testing.T) {
	m, err := NewMemory(nil, nil)
	if err != nil {
		t.Fatalf("NewMemory failed: %v", err)
	}
	ctx := context.Background()

	if _, err := m.GetByID(ctx, 2212); !errors.Is(err, ErrParticleNotFound) {
		t.Errorf("expected ErrParticleNotFound, got %v", err)
	}
	if _, err := m.GetByName(ctx, "p"); !errors.Is(err, ErrParticleNotFound) {
		t.Errorf("expected ErrParticleNotFound, got %v", err)
	}
}

func TestNewMemory_Duplicate(t *testing.T) {
	particles := []*domain.Particle{
		{ID: 211, Name: "pi+"},
		{ID: 211, Name: "pi+ again"},
	}
	if _, err := NewMemory(particles, nil); err == nil {
		t.Error("expected duplicate code error")
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m, err := NewMemory([]*domain.Particle{{ID: 211, Name: "pi+", Mass: 0.1396}}, nil)
	if err != nil {
		t.Fatalf("NewMemory failed: %v", err)
	}
	ctx := context.Background()

	p, _ := m.GetByID(ctx, 211)
	p.Mass = 99
	again, _ := m.GetByID(ctx, 211)
	if again.Mass != 0.1396 {
		t.Errorf("record mutated through returned pointer: %v", again.Mass)
	}
}

func TestDecode_YAML(t *testing.T) {
	doc := `
- name: p
  anti_name: p~
  mcid: 2212
  mass: 0.938
  charge: 1
  spin: 0.5
  type: hadron
- name: pi0
  mcid: 111
  mass: 0.135
  charge: 0
  struct: (uU-dD)/sqrt(2)
  type: hadron
- name: Delta(1232)++
  mcid: 2224
  mass: 1.232
  charge: 2
  width: 0.117
  type: hadron
  decays:
    - products: [2212, 211]
      fraction: 1.0
`
	m, err := Load(strings.NewReader(doc), FormatYAML)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	ctx := context.Background()

	pi0, err := m.GetByID(ctx, 111)
	if err != nil {
		t.Fatalf("GetByID(111) failed: %v", err)
	}
	if pi0.Quarks != "dD" || pi0.Type != domain.TypeMeson {
		t.Errorf("pi0 = %+v, want quarks from code", pi0)
	}

	delta, _ := m.GetByID(ctx, 2224)
	if delta.Spin != 1.5 {
		t.Errorf("Delta spin = %v, want 1.5 from code", delta.Spin)
	}
	if !IsResonance(delta) {
		t.Error("Delta should be a resonance")
	}

	if _, err := m.GetByID(ctx, -2224); err != nil {
		t.Errorf("anti-Delta not synthesized: %v", err)
	}
}

func TestDecode_MissingCode(t *testing.T) {
	_, err := Load(strings.NewReader(`[{"name": "x", "mass": 1}]`), FormatJSON)
	if err == nil {
		t.Error("expected error for entry without mcid")
	}
}

func TestIsResonance(t *testing.T) {
	tests := []struct {
		p    domain.Particle
		want bool
	}{
		{domain.Particle{Name: "p"}, false},
		{domain.Particle{Name: "pi+", Width: 2.5e-17}, false},
		{domain.Particle{Name: "eta", Width: 1.31e-6}, false},
		{domain.Particle{Name: "rho(770)0", Width: 0.1478}, true},
		{domain.Particle{Name: "N(1440)+"}, true},
		{domain.Particle{Name: "Z0", Width: 2.4952}, true},
	}
	for _, tt := range tests {
		if got := IsResonance(&tt.p); got != tt.want {
			t.Errorf("IsResonance(%s) = %v, want %v", tt.p.Name, got, tt.want)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	if FormatFromPath("particles.yml") != FormatYAML {
		t.Error("expected yaml for .yml")
	}
	if FormatFromPath("particles.json") != FormatJSON {
		t.Error("expected json for .json")
	}
}
