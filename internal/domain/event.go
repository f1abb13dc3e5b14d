package domain

import (
	"encoding/json"
	"fmt"
)

// SeedPair is the first-order pair whose interaction triggered the final state.
// Used by the event display to pick an animation.
type SeedPair struct {
	ID1 int `json:"id_1"`
	ID2 int `json:"id_2"`
}

// Diagnostics summarises the initial state of a generated event.
type Diagnostics struct {
	Mass            float64    `json:"Mass"` // sqrt(s), GeV
	BaryonNum       float64    `json:"BaryonNum"`
	SBC             [3]float64 `json:"S,B,C"` // strangeness, bottom, charm
	Charge          float64    `json:"Charge"`
	LeptonE         float64    `json:"Lepton_e"`
	LeptonMu        float64    `json:"Lepton_mu"`
	LeptonTau       float64    `json:"Lepton_tau"`
	InteractionType Channel    `json:"InteractionType"`
}

// NewDiagnostics builds diagnostics from the initial-state vector.
func NewDiagnostics(sqrtS float64, q QuantumNumbers, ch Channel) Diagnostics {
	return Diagnostics{
		Mass:            sqrtS,
		BaryonNum:       q.Baryon,
		SBC:             [3]float64{q.Strangeness, q.Bottom, q.Charm},
		Charge:          q.Charge,
		LeptonE:         q.LeptonE,
		LeptonMu:        q.LeptonMu,
		LeptonTau:       q.LeptonTau,
		InteractionType: ch,
	}
}

// Event is the result of one successful generation call.
type Event struct {
	EventID     string  // base58 hash, see idhash.ComputeEventID
	Incoming    [2]int  // incoming particle codes
	BeamEnergy  float64 // GeV
	Products    []int   // final-state particle codes in generation order
	Seed        SeedPair
	Diagnostics Diagnostics
	Attempts    int    // rejection-sampling attempts consumed
	RNGSeed     uint64 // seed that reproduces this event
}

// ProductMap keys final-state codes sequentially as id_1, id_2, ...
func (e *Event) ProductMap() map[string]int {
	m := make(map[string]int, len(e.Products))
	for i, id := range e.Products {
		m[fmt.Sprintf("id_%d", i+1)] = id
	}
	return m
}

// LegacyPayload is the three-part array served to the web layer:
// [[products], [seed pair], [diagnostics]].
type LegacyPayload struct {
	Products    map[string]int
	Seed        SeedPair
	Diagnostics Diagnostics
}

// Legacy converts the event into its web payload.
func (e *Event) Legacy() LegacyPayload {
	return LegacyPayload{
		Products:    e.ProductMap(),
		Seed:        e.Seed,
		Diagnostics: e.Diagnostics,
	}
}

// MarshalJSON emits the array form expected by the web layer.
func (p LegacyPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{
		[]map[string]int{p.Products},
		[]SeedPair{p.Seed},
		[]Diagnostics{p.Diagnostics},
	})
}
