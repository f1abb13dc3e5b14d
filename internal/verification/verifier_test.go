package verification

import (
	"context"
	"errors"
	"testing"

	"collider-lab/internal/batch"
	"collider-lab/internal/catalog/catalogtest"
	"collider-lab/internal/domain"
	"collider-lab/internal/metrics"
	"collider-lab/internal/orchestrator"
	"collider-lab/internal/registry"
	"collider-lab/internal/storage/memory"
)

func newOrchestrator(t *testing.T) *orchestrator.Orchestrator {
	t.Helper()
	reg, err := registry.Build(context.Background(), catalogtest.Embedded(t), nil)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return orchestrator.New(orchestrator.Options{Registry: registry.Preloaded(reg)})
}

// runPlan generates a small seeded run and returns the store and run ID.
func runPlan(t *testing.T, orch *orchestrator.Orchestrator) (*memory.EventStore, string) {
	t.Helper()
	events := memory.NewEventStore()
	runner := batch.NewRunner(batch.Options{
		Generator:  orch,
		Events:     events,
		Aggregator: metrics.NewAggregator(events, memory.NewChannelAggregateStore()),
	})

	res, err := runner.Run(context.Background(), &batch.Plan{
		Name: "verify",
		Seed: 42,
		Runs: []batch.Run{
			{ID1: 11, ID2: -11, Energy: 1000, Count: 5},
			{ID1: 22, ID2: 22, Energy: 100, Count: 2},
		},
	})
	if err != nil {
		t.Fatalf("run plan: %v", err)
	}
	return events, res.RunID
}

func TestCompareRecords_ExactMatch(t *testing.T) {
	rec := &domain.EventRecord{
		EventID:  "e1",
		ID1:      11,
		ID2:      -11,
		SqrtS:    1.0113,
		Channel:  domain.ChannelLeptonLepton,
		Status:   domain.StatusOK,
		Products: []int{13, -13},
		SeedID1:  13,
		SeedID2:  -13,
		Attempts: 3,
	}
	replayed := *rec
	replayed.EventID = "other"
	replayed.CreatedAtMs = 99
	replayed.Products = []int{13, -13}

	if d := CompareRecords(rec, &replayed); len(d) != 0 {
		t.Errorf("Expected 0 divergences, got %d: %v", len(d), d)
	}
}

func TestCompareRecords_Divergences(t *testing.T) {
	stored := &domain.EventRecord{
		Status:   domain.StatusOK,
		Channel:  domain.ChannelHadronHadron,
		SqrtS:    11.5,
		Products: []int{211, -211},
		SeedID1:  2,
		SeedID2:  -2,
		Attempts: 1,
		Charge:   2,
	}
	replayed := &domain.EventRecord{
		Status:   domain.StatusOK,
		Channel:  domain.ChannelHadronHadron,
		SqrtS:    11.5 + 1e-9,
		Products: []int{211, -211, 111},
		SeedID1:  2,
		SeedID2:  -2,
		Attempts: 4,
		Charge:   2,
	}

	d := CompareRecords(stored, replayed)
	if len(d) != 2 {
		t.Fatalf("Expected 2 divergences, got %d: %v", len(d), d)
	}
	if d[0].Field != "Products" || d[1].Field != "Attempts" {
		t.Errorf("unexpected fields: %v", d)
	}
}

func TestCompareRecords_FailedIgnoresQuantumNumbers(t *testing.T) {
	stored := &domain.EventRecord{Status: domain.StatusFailed, FailureStage: domain.StageClassify, Channel: domain.ChannelUnknown}
	replayed := &domain.EventRecord{Status: domain.StatusFailed, FailureStage: domain.StageClassify, Channel: domain.ChannelUnknown, Charge: 1}

	if d := CompareRecords(stored, replayed); len(d) != 0 {
		t.Errorf("Expected 0 divergences, got %v", d)
	}
}

func TestReplayVerifier_VerifyRun(t *testing.T) {
	orch := newOrchestrator(t)
	events, runID := runPlan(t, orch)

	report, err := NewReplayVerifier(events, orch).VerifyRun(context.Background(), runID)
	if err != nil {
		t.Fatalf("VerifyRun failed: %v", err)
	}

	if report.TotalEvents != 7 {
		t.Errorf("TotalEvents = %d, want 7", report.TotalEvents)
	}
	if report.MatchedEvents != 7 || report.DivergentEvents != 0 {
		for _, r := range report.Results {
			if !r.Match {
				t.Logf("%s: %v", r.EventID, r.Divergences)
			}
		}
		t.Errorf("matched = %d, divergent = %d", report.MatchedEvents, report.DivergentEvents)
	}
}

func TestReplayVerifier_DetectsTampering(t *testing.T) {
	ctx := context.Background()
	orch := newOrchestrator(t)
	events, runID := runPlan(t, orch)

	records, err := events.GetByRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	var ok *domain.EventRecord
	for _, r := range records {
		if r.Status == domain.StatusOK {
			ok = r
			break
		}
	}
	if ok == nil {
		t.Fatal("no successful record in run")
	}

	tampered := *ok
	tampered.EventID = "tampered"
	tampered.RunID = "tampered-run"
	tampered.Products = append([]int{22}, ok.Products...)
	if err := events.Insert(ctx, &tampered); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	result, err := NewReplayVerifier(events, orch).VerifyEvent(ctx, "tampered")
	if err != nil {
		t.Fatalf("VerifyEvent failed: %v", err)
	}
	if result.Match {
		t.Fatal("tampered record should not match")
	}
	found := false
	for _, d := range result.Divergences {
		if d.Field == "Products" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Products divergence, got %v", result.Divergences)
	}
}

func TestReplayVerifier_SkipsSeedlessRecords(t *testing.T) {
	ctx := context.Background()
	events := memory.NewEventStore()
	rec := &domain.EventRecord{EventID: "seedless", RunID: "r", ID1: 11, ID2: -11, BeamEnergy: 1000, Status: domain.StatusOK}
	if err := events.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	report, err := NewReplayVerifier(events, newOrchestrator(t)).VerifyRun(ctx, "r")
	if err != nil {
		t.Fatalf("VerifyRun failed: %v", err)
	}
	if report.SkippedEvents != 1 || report.MatchedEvents != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestReplayVerifier_NotFound(t *testing.T) {
	_, err := NewReplayVerifier(memory.NewEventStore(), newOrchestrator(t)).VerifyEvent(context.Background(), "missing")
	if !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}
