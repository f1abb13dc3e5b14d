package domain

// EventStatus is the outcome of one generation request.
type EventStatus string

const (
	StatusOK     EventStatus = "OK"
	StatusFailed EventStatus = "FAILED"
)

// Stage names the generation step that failed.
type Stage string

const (
	StageInput     Stage = "input"     // unknown particle or bad beam energy
	StageClassify  Stage = "classify"  // unsupported channel
	StageWeights   Stage = "weights"   // empty candidate pool
	StageResonance Stage = "resonance" // no resonance below the mass ceiling
	StageSampling  Stage = "sampling"  // attempt ceiling exhausted
)

// EventRecord is the persisted form of one generation request, successful or not.
// Corresponds to event_records table.
type EventRecord struct {
	EventID string // deterministic hash
	RunID   string // batch run identifier

	// Request
	ID1        int
	ID2        int
	BeamEnergy float64 // GeV
	RNGSeed    uint64

	// Classification
	SqrtS   float64
	Channel Channel

	// Outcome
	Status       EventStatus
	FailureStage Stage // empty when Status is OK
	Products     []int
	SeedID1      int
	SeedID2      int
	Attempts     int

	// Initial state
	Charge      float64
	Baryon      float64
	Strangeness float64
	Charm       float64
	Bottom      float64
	LeptonE     float64
	LeptonMu    float64
	LeptonTau   float64

	CreatedAtMs int64
}

// Multiplicity returns the number of final-state particles.
func (r *EventRecord) Multiplicity() int {
	return len(r.Products)
}

// RecordFromEvent builds a successful record from an event.
func RecordFromEvent(runID string, ev *Event, createdAtMs int64) *EventRecord {
	d := ev.Diagnostics
	products := make([]int, len(ev.Products))
	copy(products, ev.Products)
	return &EventRecord{
		EventID:     ev.EventID,
		RunID:       runID,
		ID1:         ev.Incoming[0],
		ID2:         ev.Incoming[1],
		BeamEnergy:  ev.BeamEnergy,
		RNGSeed:     ev.RNGSeed,
		SqrtS:       d.Mass,
		Channel:     d.InteractionType,
		Status:      StatusOK,
		Products:    products,
		SeedID1:     ev.Seed.ID1,
		SeedID2:     ev.Seed.ID2,
		Attempts:    ev.Attempts,
		Charge:      d.Charge,
		Baryon:      d.BaryonNum,
		Strangeness: d.SBC[0],
		Bottom:      d.SBC[1],
		Charm:       d.SBC[2],
		LeptonE:     d.LeptonE,
		LeptonMu:    d.LeptonMu,
		LeptonTau:   d.LeptonTau,
		CreatedAtMs: createdAtMs,
	}
}
