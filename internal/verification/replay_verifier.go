package verification

import (
	"context"
	"errors"
	"fmt"

	"collider-lab/internal/batch"
	"collider-lab/internal/domain"
	"collider-lab/internal/orchestrator"
	"collider-lab/internal/storage"
)

// ErrEventNotFound is returned when event ID doesn't exist.
var ErrEventNotFound = errors.New("event not found")

// ReplayVerifier implements Verifier by regenerating each record.
type ReplayVerifier struct {
	events    storage.EventStore
	generator batch.Generator
}

// NewReplayVerifier creates a new ReplayVerifier.
// The generator must use the same catalog and attempt ceilings as the original run.
func NewReplayVerifier(events storage.EventStore, gen batch.Generator) *ReplayVerifier {
	return &ReplayVerifier{events: events, generator: gen}
}

// VerifyEvent verifies a single record by replaying its request.
func (v *ReplayVerifier) VerifyEvent(ctx context.Context, eventID string) (*VerificationResult, error) {
	stored, err := v.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
		}
		return nil, err
	}
	return v.verify(ctx, stored)
}

// VerifyRun verifies all records of a run.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationReport, error) {
	records, err := v.events.GetByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		RunID:       runID,
		TotalEvents: len(records),
		Results:     make([]VerificationResult, 0, len(records)),
	}

	for _, rec := range records {
		result, err := v.verify(ctx, rec)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Record error as divergence
			result = &VerificationResult{
				EventID: rec.EventID,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			}
		}

		report.Results = append(report.Results, *result)
		switch {
		case result.Skipped:
			report.SkippedEvents++
		case result.Match:
			report.MatchedEvents++
		default:
			report.DivergentEvents++
		}
	}

	return report, nil
}

func (v *ReplayVerifier) verify(ctx context.Context, stored *domain.EventRecord) (*VerificationResult, error) {
	if stored.RNGSeed == 0 {
		return &VerificationResult{EventID: stored.EventID, Skipped: true}, nil
	}

	replayed, err := v.replay(ctx, stored)
	if err != nil {
		return nil, err
	}

	divergences := CompareRecords(stored, replayed)
	return &VerificationResult{
		EventID:     stored.EventID,
		Match:       len(divergences) == 0,
		Divergences: divergences,
	}, nil
}

// replay re-executes generation with the stored record's request and seed.
func (v *ReplayVerifier) replay(ctx context.Context, stored *domain.EventRecord) (*domain.EventRecord, error) {
	req := orchestrator.Request{
		ID1:        stored.ID1,
		ID2:        stored.ID2,
		BeamEnergy: stored.BeamEnergy,
		Seed:       stored.RNGSeed,
		RunID:      stored.RunID,
	}

	ev, err := v.generator.GenerateEvent(ctx, req)
	if err != nil {
		if orchestrator.StageOf(err) == "" {
			return nil, err
		}
		return batch.FailedRecord(req, err, stored.CreatedAtMs), nil
	}
	return domain.RecordFromEvent(stored.RunID, ev, stored.CreatedAtMs), nil
}
