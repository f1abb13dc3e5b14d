package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"collider-lab/internal/domain"
	"collider-lab/internal/pdgid"
)

// Format is a catalog file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from the file extension. Defaults to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Entry is one particle in a catalog file. Field names follow the PDG export
// (name, descr, mass, charge, spin, struct, type, mcid, color).
type Entry struct {
	Name     string       `json:"name" yaml:"name"`
	AntiName string       `json:"anti_name,omitempty" yaml:"anti_name,omitempty"`
	Descr    string       `json:"descr,omitempty" yaml:"descr,omitempty"`
	MCID     int          `json:"mcid" yaml:"mcid"`
	Mass     float64      `json:"mass" yaml:"mass"`
	Charge   float64      `json:"charge" yaml:"charge"`
	Spin     *float64     `json:"spin,omitempty" yaml:"spin,omitempty"`
	Width    float64      `json:"width,omitempty" yaml:"width,omitempty"`
	Struct   string       `json:"struct,omitempty" yaml:"struct,omitempty"`
	Type     string       `json:"type,omitempty" yaml:"type,omitempty"`
	Color    string       `json:"color,omitempty" yaml:"color,omitempty"`
	Decays   []DecayEntry `json:"decays,omitempty" yaml:"decays,omitempty"`
}

// DecayEntry is one exclusive decay mode in a catalog file.
type DecayEntry struct {
	Products []int   `json:"products" yaml:"products"`
	Fraction float64 `json:"fraction" yaml:"fraction"`
}

// Decode reads catalog entries. The document is a top-level list.
func Decode(r io.Reader, format Format) ([]Entry, error) {
	var entries []Entry
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode yaml catalog: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode json catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	return entries, nil
}

// Load decodes entries and builds an in-memory provider.
func Load(r io.Reader, format Format) (*Memory, error) {
	entries, err := Decode(r, format)
	if err != nil {
		return nil, err
	}
	return Build(entries)
}

// Build normalizes entries into records and decay tables.
// Missing quark content, type tags and spins are derived from the particle
// code. Every flavored or charged entry gets a synthesized antiparticle
// unless the catalog already lists it.
func Build(entries []Entry) (*Memory, error) {
	particles, decays, err := Normalize(entries)
	if err != nil {
		return nil, err
	}
	return NewMemory(particles, decays)
}

// Normalize converts entries to records, including synthesized antiparticles.
func Normalize(entries []Entry) ([]*domain.Particle, map[int][]domain.DecayChannel, error) {
	listed := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		if e.MCID == 0 {
			return nil, nil, fmt.Errorf("entry %q: missing mcid", e.Name)
		}
		if strings.TrimSpace(e.Name) == "" {
			return nil, nil, fmt.Errorf("entry %d: missing name", e.MCID)
		}
		listed[e.MCID] = struct{}{}
	}

	var particles []*domain.Particle
	decays := make(map[int][]domain.DecayChannel)

	for _, e := range entries {
		p := recordFromEntry(e)
		particles = append(particles, p)
		if len(e.Decays) > 0 {
			decays[p.ID] = channelsFromEntry(e.Decays)
		}

		anti := pdgid.Conjugate(e.MCID)
		if anti == e.MCID {
			continue
		}
		if _, exists := listed[anti]; exists {
			continue
		}
		ap := antiparticle(p, e.AntiName)
		particles = append(particles, ap)
		if ch, ok := decays[p.ID]; ok {
			decays[ap.ID] = conjugateChannels(ch)
		}
	}

	return particles, decays, nil
}

func recordFromEntry(e Entry) *domain.Particle {
	p := &domain.Particle{
		ID:     e.MCID,
		Name:   e.Name,
		Mass:   e.Mass,
		Charge: e.Charge,
		Width:  e.Width,
		Quarks: quarksFromEntry(e),
	}

	switch {
	case e.Spin != nil:
		p.Spin = *e.Spin
	default:
		if j, ok := pdgid.Spin(e.MCID); ok {
			p.Spin = j
		}
	}

	p.Type = typeFromEntry(e.Type, e.MCID, p.Quarks)
	return p
}

// quarksFromEntry keeps a catalog struct only if it is plain flavor letters.
// Mixed states like "(uU-dD)/sqrt(2)" fall back to the code.
func quarksFromEntry(e Entry) string {
	if isFlavorString(e.Struct) {
		return e.Struct
	}
	q, err := pdgid.Quarks(e.MCID)
	if err != nil {
		return ""
	}
	return q
}

func isFlavorString(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("udscbtUDSCBT", c) {
			return false
		}
	}
	return true
}

func typeFromEntry(tag string, id int, quarks string) domain.ParticleType {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "baryon":
		return domain.TypeBaryon
	case "meson":
		return domain.TypeMeson
	case "lepton":
		return domain.TypeLepton
	case "gauge_boson", "gauge-boson":
		return domain.TypeGaugeBoson
	case "boson":
		if pdgid.IsGaugeBoson(id) {
			return domain.TypeGaugeBoson
		}
		return domain.TypeUnknown
	case "hadron":
		return pdgid.TypeFromQuarks(quarks)
	}

	if t := pdgid.TypeOf(id); t != domain.TypeUnknown {
		return t
	}
	return pdgid.TypeFromQuarks(quarks)
}

func channelsFromEntry(in []DecayEntry) []domain.DecayChannel {
	out := make([]domain.DecayChannel, 0, len(in))
	for _, d := range in {
		products := make([]int, len(d.Products))
		copy(products, d.Products)
		out = append(out, domain.DecayChannel{Products: products, Fraction: d.Fraction})
	}
	return out
}

func antiparticle(p *domain.Particle, antiName string) *domain.Particle {
	name := antiName
	if name == "" {
		name = p.Name + "~"
	}
	ap := *p
	ap.ID = -p.ID
	ap.Name = name
	ap.Charge = -p.Charge
	ap.Quarks = pdgid.ConjugateQuarks(p.Quarks)
	return &ap
}

func conjugateChannels(in []domain.DecayChannel) []domain.DecayChannel {
	out := make([]domain.DecayChannel, len(in))
	for i, c := range in {
		products := make([]int, len(c.Products))
		for j, id := range c.Products {
			products[j] = pdgid.Conjugate(id)
		}
		out[i] = domain.DecayChannel{Products: products, Fraction: c.Fraction}
	}
	return out
}
