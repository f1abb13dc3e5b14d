package idhash

import (
	"testing"

	"github.com/mr-tron/base58"
)

func TestComputeEventID(t *testing.T) {
	tests := []struct {
		name       string
		runID      string
		id1, id2   int
		beamEnergy float64
		rngSeed    uint64
		sequence   int
	}{
		{
			name:       "proton proton",
			runID:      "run-a",
			id1:        2212,
			id2:        2212,
			beamEnergy: 70,
			rngSeed:    42,
			sequence:   0,
		},
		{
			name:       "electron positron",
			runID:      "run-b",
			id1:        11,
			id2:        -11,
			beamEnergy: 1000,
			rngSeed:    7,
			sequence:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeEventID(tt.runID, tt.id1, tt.id2, tt.beamEnergy, tt.rngSeed, tt.sequence)

			raw, err := base58.Decode(got)
			if err != nil {
				t.Fatalf("ComputeEventID() is not base58: %v", err)
			}
			if len(raw) != 32 {
				t.Errorf("decoded length = %d, want 32", len(raw))
			}

			// Verify determinism: same inputs should produce same output
			got2 := ComputeEventID(tt.runID, tt.id1, tt.id2, tt.beamEnergy, tt.rngSeed, tt.sequence)
			if got != got2 {
				t.Errorf("ComputeEventID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeEventID_DifferentInputs(t *testing.T) {
	base := ComputeEventID("run", 2212, 2212, 70, 1, 0)

	// Swapped beams are a different set-up
	if base == ComputeEventID("run", 2212, -2212, 70, 1, 0) {
		t.Error("Different id2 should produce different hash")
	}

	if base == ComputeEventID("run", 2212, 2212, 70.5, 1, 0) {
		t.Error("Different beam energy should produce different hash")
	}

	if base == ComputeEventID("run", 2212, 2212, 70, 2, 0) {
		t.Error("Different rng seed should produce different hash")
	}

	if base == ComputeEventID("run", 2212, 2212, 70, 1, 1) {
		t.Error("Different sequence should produce different hash")
	}

	if base == ComputeEventID("other", 2212, 2212, 70, 1, 0) {
		t.Error("Different run should produce different hash")
	}
}

func TestComputeRunID(t *testing.T) {
	a := ComputeRunID("scan", 1704067234567, 1)
	if len(a) != 64 {
		t.Errorf("ComputeRunID() length = %d, want 64", len(a))
	}
	if a != ComputeRunID("scan", 1704067234567, 1) {
		t.Error("ComputeRunID() not deterministic")
	}
	if a == ComputeRunID("scan", 1704067234568, 1) {
		t.Error("Different start time should produce different hash")
	}
	if a == ComputeRunID("scan", 1704067234567, 2) {
		t.Error("Different plan seed should produce different hash")
	}
}
