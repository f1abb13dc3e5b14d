package metrics

import (
	"math"
	"testing"

	"collider-lab/internal/domain"
)

func okRecord(attempts int, products ...int) *domain.EventRecord {
	return &domain.EventRecord{
		RunID:      "run",
		ID1:        2212,
		ID2:        2212,
		BeamEnergy: 70,
		SqrtS:      11.5377,
		Channel:    domain.ChannelHadronHadron,
		Status:     domain.StatusOK,
		Attempts:   attempts,
		Products:   products,
	}
}

func failedRecord(stage domain.Stage) *domain.EventRecord {
	r := okRecord(0)
	r.Status = domain.StatusFailed
	r.FailureStage = stage
	return r
}

func TestComputeFromRecords_Empty(t *testing.T) {
	agg := computeFromRecords(nil, 3)
	if agg.TotalEvents != 0 || agg.TopProducts != nil {
		t.Errorf("expected empty aggregate, got %+v", agg)
	}
}

func TestComputeFromRecords_Counts(t *testing.T) {
	records := []*domain.EventRecord{
		okRecord(1, 2212, 211),
		okRecord(2, 2212, 211, -211),
		okRecord(3, 2212, 2212, 111),
		okRecord(4, 2212, 211),
		failedRecord(domain.StageSampling),
		failedRecord(domain.StageResonance),
	}

	agg := computeFromRecords(records, 2)

	if agg.TotalEvents != 6 || agg.Succeeded != 4 || agg.Failed != 2 {
		t.Errorf("counts = %d/%d/%d, want 6/4/2", agg.TotalEvents, agg.Succeeded, agg.Failed)
	}
	if math.Abs(agg.SuccessRate-4.0/6.0) > 1e-12 {
		t.Errorf("SuccessRate = %v", agg.SuccessRate)
	}
	if agg.FailedExhausted != 1 || agg.FailedNoResonance != 1 || agg.FailedUnsupported != 0 {
		t.Errorf("failure breakdown = %+v", agg)
	}
	if agg.Channel != domain.ChannelHadronHadron || agg.SqrtS != 11.5377 {
		t.Errorf("set-up fields not copied: %+v", agg)
	}
}

func TestComputeFromRecords_AttemptStats(t *testing.T) {
	records := []*domain.EventRecord{
		okRecord(4, 1, 2),
		okRecord(1, 1, 2),
		okRecord(3, 1, 2),
		okRecord(2, 1, 2),
	}

	agg := computeFromRecords(records, 5)

	if agg.AttemptsMean != 2.5 {
		t.Errorf("AttemptsMean = %v, want 2.5", agg.AttemptsMean)
	}
	// Empirical quantile: smallest value whose cumulative share reaches p
	if agg.AttemptsMedian != 2 {
		t.Errorf("AttemptsMedian = %v, want 2", agg.AttemptsMedian)
	}
	if agg.AttemptsP90 != 4 {
		t.Errorf("AttemptsP90 = %v, want 4", agg.AttemptsP90)
	}
	if agg.AttemptsMax != 4 {
		t.Errorf("AttemptsMax = %d, want 4", agg.AttemptsMax)
	}
}

func TestComputeFromRecords_Multiplicity(t *testing.T) {
	records := []*domain.EventRecord{
		okRecord(1, 1, 2),
		okRecord(1, 1, 2, 3, 4),
	}

	agg := computeFromRecords(records, 5)

	if agg.MultiplicityMean != 3 {
		t.Errorf("MultiplicityMean = %v, want 3", agg.MultiplicityMean)
	}
	// sample stddev of {2, 4}
	if math.Abs(agg.MultiplicityStddev-math.Sqrt2) > 1e-12 {
		t.Errorf("MultiplicityStddev = %v, want sqrt(2)", agg.MultiplicityStddev)
	}

	single := computeFromRecords(records[:1], 5)
	if single.MultiplicityStddev != 0 {
		t.Errorf("single event stddev = %v, want 0", single.MultiplicityStddev)
	}
}

func TestComputeFromRecords_AllFailed(t *testing.T) {
	agg := computeFromRecords([]*domain.EventRecord{failedRecord(domain.StageClassify)}, 5)

	if agg.SuccessRate != 0 || agg.AttemptsMean != 0 || agg.FailedUnsupported != 1 {
		t.Errorf("unexpected aggregate %+v", agg)
	}
}

func TestTopProducts_Ordering(t *testing.T) {
	counts := map[int]int{211: 3, -211: 3, 2212: 5, 111: 1}

	top := topProducts(counts, 3)

	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	if top[0].ID != 2212 || top[0].Count != 5 {
		t.Errorf("top[0] = %+v", top[0])
	}
	// ties broken by code ASC
	if top[1].ID != -211 || top[2].ID != 211 {
		t.Errorf("tie order = %d, %d", top[1].ID, top[2].ID)
	}

	if topProducts(counts, 0) != nil {
		t.Error("topN 0 should return nil")
	}
}
