package domain

// BeamSetup identifies one incoming configuration of a batch run.
type BeamSetup struct {
	ID1        int
	ID2        int
	BeamEnergy float64 // GeV
}

// ProductFrequency counts how often a species appeared in final states.
type ProductFrequency struct {
	ID    int
	Count int
}

// ChannelAggregate holds aggregate statistics for one (run, beam setup).
// Corresponds to channel_aggregates table.
type ChannelAggregate struct {
	RunID      string
	ID1        int
	ID2        int
	BeamEnergy float64
	Channel    Channel
	SqrtS      float64

	// Counts
	TotalEvents int
	Succeeded   int
	Failed      int
	SuccessRate float64 // succeeded / total

	// Failures by stage
	FailedUnsupported int
	FailedNoParticles int
	FailedNoResonance int
	FailedExhausted   int

	// Attempts (successful events only)
	AttemptsMean   float64
	AttemptsMedian float64
	AttemptsP90    float64
	AttemptsMax    int

	// Final-state multiplicity (successful events only)
	MultiplicityMean   float64
	MultiplicityStddev float64

	// Most frequent species, descending by count
	TopProducts []ProductFrequency
}
