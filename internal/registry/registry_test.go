package registry

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"collider-lab/internal/catalog"
	"collider-lab/internal/catalog/catalogtest"
	"collider-lab/internal/domain"
)

func TestBuild_Embedded(t *testing.T) {
	r, err := Build(context.Background(), catalogtest.Embedded(t), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	s := r.Stats()
	if s.Particles != 97 {
		t.Errorf("Particles = %d, want 97", s.Particles)
	}
	if s.Hadrons != 42 {
		t.Errorf("Hadrons = %d, want 42", s.Hadrons)
	}
	if s.Leptons != 12 {
		t.Errorf("Leptons = %d, want 12", s.Leptons)
	}
	if s.GaugeBosons != 6 {
		t.Errorf("GaugeBosons = %d, want 6", s.GaugeBosons)
	}
	if s.Resonances != 37 {
		t.Errorf("Resonances = %d, want 37", s.Resonances)
	}
	if got := len(r.Pool()); got != s.Hadrons+s.Leptons+s.GaugeBosons {
		t.Errorf("Pool size = %d, want %d", got, s.Hadrons+s.Leptons+s.GaugeBosons)
	}

	for _, p := range r.Hadrons() {
		if catalog.IsResonance(p) {
			t.Errorf("hadron pool contains resonance %s", p.Name)
		}
	}
	for i := 1; i < len(r.Resonances()); i++ {
		if r.Resonances()[i-1].ID >= r.Resonances()[i].ID {
			t.Fatal("resonances not ordered by code")
		}
	}
}

func TestBuild_Decays(t *testing.T) {
	r, err := Build(context.Background(), catalogtest.Embedded(t), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	decays := r.Decays(2224)
	if len(decays) != 1 {
		t.Fatalf("Delta++ decays = %d, want 1", len(decays))
	}
	if ids := []int{decays[0].Products[0].ID, decays[0].Products[1].ID}; ids[0] != 2212 || ids[1] != 211 {
		t.Errorf("Delta++ products = %v, want [2212 211]", ids)
	}

	anti := r.Decays(-2224)
	if len(anti) != 1 || anti[0].Products[0].ID != -2212 || anti[0].Products[1].ID != -211 {
		t.Errorf("anti-Delta decays not conjugated: %+v", anti)
	}

	if len(r.Decays(2212)) != 0 {
		t.Error("proton should have no decays")
	}
}

func TestBuild_DropsUnresolvableChannels(t *testing.T) {
	entries := []catalog.Entry{
		catalogtest.Hadron("p", 2212, 0.938, 1),
		catalogtest.Hadron("pi+", 211, 0.1396, 1),
		{
			Name: "Delta(1232)++", MCID: 2224, Mass: 1.232, Charge: 2, Width: 0.117, Type: "hadron",
			Decays: []catalog.DecayEntry{
				{Products: []int{2212, 211}, Fraction: 0.9},
				{Products: []int{2212, 9999999}, Fraction: 0.1},
			},
		},
	}
	r, err := Build(context.Background(), catalogtest.Build(t, entries...), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if got := len(r.Decays(2224)); got != 1 {
		t.Errorf("expected 1 resolvable channel, got %d", got)
	}
	if r.Stats().DecayChannels != 2 {
		// Delta++ and its synthesized antiparticle each keep one channel
		t.Errorf("DecayChannels = %d, want 2", r.Stats().DecayChannels)
	}
}

func TestRegistry_Numbers(t *testing.T) {
	r, err := Build(context.Background(), catalogtest.Embedded(t), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	q := r.Numbers(3122)
	if math.Abs(q.Baryon-1) > 1e-12 || q.Strangeness != 1 || q.Charge != 0 {
		t.Errorf("Lambda numbers = %+v", q)
	}
	if got := r.Numbers(424242); got != (domain.QuantumNumbers{}) {
		t.Errorf("unknown code should read zeros, got %+v", got)
	}
}

func TestRegistry_ResonancesBelow(t *testing.T) {
	r, err := Build(context.Background(), catalogtest.Embedded(t), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	below := r.ResonancesBelow(1.3)
	if len(below) == 0 {
		t.Fatal("expected resonances below 1.3 GeV")
	}
	for _, p := range below {
		if p.Mass >= 1.3 {
			t.Errorf("%s mass %.3f not below limit", p.Name, p.Mass)
		}
		if len(r.Decays(p.ID)) == 0 {
			t.Errorf("%s has no decays", p.Name)
		}
	}

	if got := r.ResonancesBelow(0.5); len(got) != 0 {
		t.Errorf("expected no resonances below 0.5 GeV, got %d", len(got))
	}
}

func TestBuild_EmptyCatalog(t *testing.T) {
	empty, err := catalog.NewMemory(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Build(context.Background(), empty, nil); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("expected ErrEmptyCatalog, got %v", err)
	}
}

type flakyProvider struct {
	catalog.Provider
	failures int
	calls    int
}

func (f *flakyProvider) ListParticles(ctx context.Context) ([]int, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("catalog unavailable")
	}
	return f.Provider.ListParticles(ctx)
}

func TestLazy_RetriesAfterFailure(t *testing.T) {
	p := &flakyProvider{Provider: catalogtest.Embedded(t), failures: 1}
	l := NewLazy(p, nil)
	ctx := context.Background()

	if _, err := l.Get(ctx); err == nil {
		t.Fatal("expected first build to fail")
	}
	if l.Loaded() {
		t.Fatal("failed build must not mark registry loaded")
	}

	r1, err := l.Get(ctx)
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	r2, err := l.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if r1 != r2 {
		t.Error("Get should return the same registry once built")
	}
	if p.calls != 2 {
		t.Errorf("ListParticles called %d times, want 2", p.calls)
	}
}

type countingProvider struct {
	catalog.Provider
	calls atomic.Int32
}

func (c *countingProvider) ListParticles(ctx context.Context) ([]int, error) {
	c.calls.Add(1)
	return c.Provider.ListParticles(ctx)
}

func TestLazy_ConcurrentGetBuildsOnce(t *testing.T) {
	p := &countingProvider{Provider: catalogtest.Embedded(t)}
	l := NewLazy(p, nil)

	const workers = 16
	regs := make([]*Registry, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg, err := l.Get(context.Background())
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			regs[i] = reg
		}()
	}
	wg.Wait()

	if n := p.calls.Load(); n != 1 {
		t.Errorf("registry built %d times, want 1", n)
	}
	for i, reg := range regs {
		if reg != regs[0] {
			t.Errorf("worker %d got a different registry", i)
		}
	}
	if !l.Loaded() {
		t.Error("Loaded() = false after Get")
	}
}

func TestPreloaded(t *testing.T) {
	reg, err := Build(context.Background(), catalogtest.Embedded(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	l := Preloaded(reg)
	if !l.Loaded() {
		t.Fatal("Preloaded registry should report loaded")
	}
	got, err := l.Get(context.Background())
	if err != nil || got != reg {
		t.Errorf("Get() = %p, %v; want %p", got, err, reg)
	}
}
