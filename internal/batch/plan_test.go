package batch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const samplePlan = `
name: lep-scan
seed: 42
runs:
  - id1: 11
    id2: -11
    energy: 1000
    count: 20
  - id1: 2212
    id2: 2212
    energy: 70
    count: 5
`

func TestDecodePlan(t *testing.T) {
	p, err := DecodePlan(strings.NewReader(samplePlan))
	if err != nil {
		t.Fatalf("DecodePlan failed: %v", err)
	}

	want := &Plan{
		Name: "lep-scan",
		Seed: 42,
		Runs: []Run{
			{ID1: 11, ID2: -11, Energy: 1000, Count: 20},
			{ID1: 2212, ID2: 2212, Energy: 70, Count: 5},
		},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
	if p.TotalEvents() != 25 {
		t.Errorf("TotalEvents = %d, want 25", p.TotalEvents())
	}
}

func TestDecodePlan_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"empty document", "", ErrEmptyPlan},
		{"no runs", "name: x\nruns: []\n", ErrEmptyPlan},
		{"missing name", "runs:\n  - {id1: 11, id2: -11, energy: 1, count: 1}\n", ErrInvalidPlan},
		{"zero energy", "name: x\nruns:\n  - {id1: 11, id2: -11, energy: 0, count: 1}\n", ErrInvalidPlan},
		{"zero count", "name: x\nruns:\n  - {id1: 11, id2: -11, energy: 1, count: 0}\n", ErrInvalidPlan},
		{"missing code", "name: x\nruns:\n  - {id1: 11, energy: 1, count: 1}\n", ErrInvalidPlan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePlan(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDecodePlan_UnknownField(t *testing.T) {
	doc := "name: x\nruns:\n  - {id1: 11, id2: -11, energy: 1, count: 1, beam: 3}\n"
	if _, err := DecodePlan(strings.NewReader(doc)); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(samplePlan), 0o600); err != nil {
		t.Fatalf("write plan: %v", err)
	}

	p, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan failed: %v", err)
	}
	if p.Name != "lep-scan" {
		t.Errorf("Name = %q", p.Name)
	}

	if _, err := LoadPlan(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEventSeed(t *testing.T) {
	if EventSeed(0, 5) != 0 {
		t.Error("zero plan seed should yield zero")
	}

	seen := make(map[uint64]bool)
	for seq := 0; seq < 1000; seq++ {
		s := EventSeed(42, seq)
		if s == 0 {
			t.Fatalf("seq %d: zero seed", seq)
		}
		if seen[s] {
			t.Fatalf("seq %d: repeated seed %d", seq, s)
		}
		seen[s] = true

		if EventSeed(42, seq) != s {
			t.Fatalf("seq %d: not deterministic", seq)
		}
	}

	if EventSeed(42, 0) == EventSeed(43, 0) {
		t.Error("different plan seeds should give different event seeds")
	}
}
