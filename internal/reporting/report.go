// Package reporting renders batch run statistics as Markdown and CSV.
package reporting

import "time"

// Report represents the summary of one batch run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	SetupCount  int

	// Run Summary
	Summary RunSummary

	// Per beam set-up metrics (sorted by id1, id2, beam_energy)
	SetupMetrics []SetupMetricRow

	// Totals per interaction channel (sorted by channel)
	ChannelTotals []ChannelTotalRow

	// Failures per beam set-up and stage, only set-ups with failures
	Failures []FailureRow

	// Most frequent final-state species per beam set-up
	TopProducts []ProductRow
}

// RunSummary contains run-wide counts.
type RunSummary struct {
	TotalEvents    int
	Succeeded      int
	Failed         int
	SuccessRate    float64
	DateRangeStart int64 // Unix ms
	DateRangeEnd   int64 // Unix ms
}

// SetupMetricRow represents one row in the set-up metrics table.
type SetupMetricRow struct {
	ID1                int
	ID2                int
	BeamEnergy         float64
	Channel            string
	SqrtS              float64
	TotalEvents        int
	Succeeded          int
	SuccessRate        float64
	AttemptsMean       float64
	AttemptsMedian     float64
	AttemptsP90        float64
	AttemptsMax        int
	MultiplicityMean   float64
	MultiplicityStddev float64
}

// ChannelTotalRow sums set-ups sharing an interaction channel.
type ChannelTotalRow struct {
	Channel     string
	Setups      int
	TotalEvents int
	Succeeded   int
	SuccessRate float64
}

// FailureRow lists failure counts of one set-up by stage.
type FailureRow struct {
	ID1         int
	ID2         int
	BeamEnergy  float64
	Unsupported int
	NoParticles int
	NoResonance int
	Exhausted   int
}

// ProductRow is one frequent species of a set-up.
type ProductRow struct {
	ID1        int
	ID2        int
	BeamEnergy float64
	Rank       int
	ProductID  int
	Name       string // empty when no name lookup is configured
	Count      int
}
