package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"collider-lab/internal/domain"
)

// DefaultTopProducts is how many species computeFromRecords keeps in TopProducts.
const DefaultTopProducts = 5

// computeFromRecords calculates all statistics for one beam set-up.
// Records must be pre-filtered by (run_id, id1, id2, beam_energy).
func computeFromRecords(records []*domain.EventRecord, topN int) *domain.ChannelAggregate {
	agg := &domain.ChannelAggregate{}
	n := len(records)
	if n == 0 {
		return agg
	}

	first := records[0]
	agg.RunID = first.RunID
	agg.ID1, agg.ID2 = first.ID1, first.ID2
	agg.BeamEnergy = first.BeamEnergy
	agg.Channel = first.Channel
	agg.SqrtS = first.SqrtS
	agg.TotalEvents = n

	var (
		attempts     []float64
		multiplicity []float64
		counts       = make(map[int]int)
	)
	for _, r := range records {
		if r.Status != domain.StatusOK {
			agg.Failed++
			countFailure(agg, r.FailureStage)
			continue
		}
		agg.Succeeded++
		attempts = append(attempts, float64(r.Attempts))
		multiplicity = append(multiplicity, float64(r.Multiplicity()))
		if r.Attempts > agg.AttemptsMax {
			agg.AttemptsMax = r.Attempts
		}
		for _, id := range r.Products {
			counts[id]++
		}
	}
	agg.SuccessRate = float64(agg.Succeeded) / float64(n)

	if len(attempts) > 0 {
		sort.Float64s(attempts)
		agg.AttemptsMean = stat.Mean(attempts, nil)
		agg.AttemptsMedian = stat.Quantile(0.5, stat.Empirical, attempts, nil)
		agg.AttemptsP90 = stat.Quantile(0.9, stat.Empirical, attempts, nil)

		agg.MultiplicityMean = stat.Mean(multiplicity, nil)
		if len(multiplicity) > 1 {
			agg.MultiplicityStddev = stat.StdDev(multiplicity, nil)
		}
	}

	agg.TopProducts = topProducts(counts, topN)
	return agg
}

func countFailure(agg *domain.ChannelAggregate, stage domain.Stage) {
	switch stage {
	case domain.StageClassify:
		agg.FailedUnsupported++
	case domain.StageWeights:
		agg.FailedNoParticles++
	case domain.StageResonance:
		agg.FailedNoResonance++
	case domain.StageSampling:
		agg.FailedExhausted++
	}
}

// topProducts returns the n most frequent codes, ties broken by code ASC.
func topProducts(counts map[int]int, n int) []domain.ProductFrequency {
	if len(counts) == 0 || n <= 0 {
		return nil
	}
	freqs := make([]domain.ProductFrequency, 0, len(counts))
	for id, c := range counts {
		freqs = append(freqs, domain.ProductFrequency{ID: id, Count: c})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Count != freqs[j].Count {
			return freqs[i].Count > freqs[j].Count
		}
		return freqs[i].ID < freqs[j].ID
	})
	if len(freqs) > n {
		freqs = freqs[:n]
	}
	return freqs
}
