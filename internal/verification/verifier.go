// Package verification replays stored event records and checks that the
// generator reproduces them from their recorded seed.
package verification

import (
	"context"
	"math"
	"slices"

	"collider-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string // field name
	Expected any    // stored value
	Actual   any    // replayed value
}

// VerificationResult contains the result of verifying a single event.
type VerificationResult struct {
	EventID     string            // verified event ID
	Match       bool              // true if all fields match
	Skipped     bool              // no recorded seed, nothing to replay
	Divergences []FieldDivergence // list of divergent fields
}

// VerificationReport contains results for a whole run.
type VerificationReport struct {
	RunID           string
	TotalEvents     int
	MatchedEvents   int
	DivergentEvents int
	SkippedEvents   int
	Results         []VerificationResult
}

// Verifier replays stored events.
type Verifier interface {
	// VerifyEvent verifies a single stored record by ID.
	VerifyEvent(ctx context.Context, eventID string) (*VerificationResult, error)

	// VerifyRun verifies every record of a run.
	VerifyRun(ctx context.Context, runID string) (*VerificationReport, error)
}

// CompareRecords compares a stored record with its replay and returns divergences.
// EventID and CreatedAtMs are not compared.
func CompareRecords(stored, replayed *domain.EventRecord) []FieldDivergence {
	var d []FieldDivergence
	add := func(field string, expected, actual any) {
		d = append(d, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	if stored.Status != replayed.Status {
		add("Status", stored.Status, replayed.Status)
	}
	if stored.FailureStage != replayed.FailureStage {
		add("FailureStage", stored.FailureStage, replayed.FailureStage)
	}
	if stored.Channel != replayed.Channel {
		add("Channel", stored.Channel, replayed.Channel)
	}
	if !floatEquals(stored.SqrtS, replayed.SqrtS) {
		add("SqrtS", stored.SqrtS, replayed.SqrtS)
	}

	// Outcome
	if !slices.Equal(stored.Products, replayed.Products) {
		add("Products", stored.Products, replayed.Products)
	}
	if stored.SeedID1 != replayed.SeedID1 || stored.SeedID2 != replayed.SeedID2 {
		add("SeedPair", [2]int{stored.SeedID1, stored.SeedID2}, [2]int{replayed.SeedID1, replayed.SeedID2})
	}
	if stored.Attempts != replayed.Attempts {
		add("Attempts", stored.Attempts, replayed.Attempts)
	}

	// Initial state; only populated for successful events
	if stored.Status == domain.StatusOK {
		numbers := []struct {
			field            string
			expected, actual float64
		}{
			{"Charge", stored.Charge, replayed.Charge},
			{"Baryon", stored.Baryon, replayed.Baryon},
			{"Strangeness", stored.Strangeness, replayed.Strangeness},
			{"Charm", stored.Charm, replayed.Charm},
			{"Bottom", stored.Bottom, replayed.Bottom},
			{"LeptonE", stored.LeptonE, replayed.LeptonE},
			{"LeptonMu", stored.LeptonMu, replayed.LeptonMu},
			{"LeptonTau", stored.LeptonTau, replayed.LeptonTau},
		}
		for _, n := range numbers {
			if !floatEquals(n.expected, n.actual) {
				add(n.field, n.expected, n.actual)
			}
		}
	}

	return d
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
