package reporting

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"collider-lab/internal/domain"
	"collider-lab/internal/storage/memory"
)

const testRunID = "0123456789abcdef0123456789abcdef"

func setupTestData(t *testing.T) (*memory.EventStore, *memory.ChannelAggregateStore) {
	ctx := context.Background()

	eventStore := memory.NewEventStore()
	aggStore := memory.NewChannelAggregateStore()

	// Insert records
	records := []*domain.EventRecord{
		{EventID: "e1", RunID: testRunID, ID1: 11, ID2: -11, BeamEnergy: 1000, Status: domain.StatusOK, Products: []int{22, 22}, CreatedAtMs: 2000},
		{EventID: "e2", RunID: testRunID, ID1: 11, ID2: -11, BeamEnergy: 1000, Status: domain.StatusOK, Products: []int{13, -13}, CreatedAtMs: 1000},
		{EventID: "e3", RunID: testRunID, ID1: 22, ID2: 22, BeamEnergy: 100, Status: domain.StatusFailed, FailureStage: domain.StageClassify, CreatedAtMs: 3000},
		{EventID: "e4", RunID: "other", ID1: 11, ID2: -11, BeamEnergy: 1000, Status: domain.StatusOK, CreatedAtMs: 99999},
	}
	if err := eventStore.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Insert aggregates
	aggregates := []*domain.ChannelAggregate{
		{
			RunID:       testRunID,
			ID1:         22,
			ID2:         22,
			BeamEnergy:  100,
			Channel:     domain.ChannelUnknown,
			TotalEvents: 1,
			Failed:      1,

			FailedUnsupported: 1,
		},
		{
			RunID:              testRunID,
			ID1:                11,
			ID2:                -11,
			BeamEnergy:         1000,
			Channel:            domain.ChannelLeptonLepton,
			SqrtS:              1.0113,
			TotalEvents:        2,
			Succeeded:          2,
			SuccessRate:        1,
			AttemptsMean:       1.5,
			AttemptsMedian:     1,
			AttemptsP90:        2,
			AttemptsMax:        2,
			MultiplicityMean:   2,
			MultiplicityStddev: 0,
			TopProducts: []domain.ProductFrequency{
				{ID: 22, Count: 2},
				{ID: -13, Count: 1},
				{ID: 13, Count: 1},
			},
		},
	}
	for _, a := range aggregates {
		if err := aggStore.Insert(ctx, a); err != nil {
			t.Fatalf("Insert aggregate failed: %v", err)
		}
	}

	return eventStore, aggStore
}

func fixedTime() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestGenerator_Generate(t *testing.T) {
	eventStore, aggStore := setupTestData(t)
	names := map[int]string{22: "gamma", 13: "mu-", -13: "mu+"}

	gen := NewGenerator(eventStore, aggStore).
		WithClock(fixedTime).
		WithNames(func(id int) string { return names[id] })

	report, err := gen.Generate(context.Background(), testRunID)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !report.GeneratedAt.Equal(fixedTime()) {
		t.Errorf("GeneratedAt = %v", report.GeneratedAt)
	}
	if report.SetupCount != 2 {
		t.Errorf("SetupCount = %d, want 2", report.SetupCount)
	}

	s := report.Summary
	if s.TotalEvents != 3 || s.Succeeded != 2 || s.Failed != 1 {
		t.Errorf("summary counts = %+v", s)
	}
	if s.DateRangeStart != 1000 || s.DateRangeEnd != 3000 {
		t.Errorf("date range = [%d, %d], want [1000, 3000]", s.DateRangeStart, s.DateRangeEnd)
	}

	if len(report.SetupMetrics) != 2 || report.SetupMetrics[0].ID1 != 11 {
		t.Fatalf("setup metrics should be sorted by id1: %+v", report.SetupMetrics)
	}

	if len(report.ChannelTotals) != 2 {
		t.Fatalf("expected 2 channel totals, got %d", len(report.ChannelTotals))
	}
	if report.ChannelTotals[0].Channel != string(domain.ChannelLeptonLepton) {
		t.Errorf("channel totals should be sorted by name: %+v", report.ChannelTotals)
	}

	if len(report.Failures) != 1 || report.Failures[0].Unsupported != 1 {
		t.Errorf("failures = %+v", report.Failures)
	}

	if len(report.TopProducts) != 3 {
		t.Fatalf("expected 3 product rows, got %d", len(report.TopProducts))
	}
	top := report.TopProducts[0]
	if top.Rank != 1 || top.ProductID != 22 || top.Name != "gamma" || top.Count != 2 {
		t.Errorf("top product = %+v", top)
	}
}

func TestGenerator_NoAggregates(t *testing.T) {
	eventStore, aggStore := setupTestData(t)

	_, err := NewGenerator(eventStore, aggStore).Generate(context.Background(), "missing")
	if !errors.Is(err, ErrNoAggregates) {
		t.Errorf("expected ErrNoAggregates, got %v", err)
	}
}

func TestRenderMarkdown(t *testing.T) {
	eventStore, aggStore := setupTestData(t)
	report, err := NewGenerator(eventStore, aggStore).WithClock(fixedTime).Generate(context.Background(), testRunID)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(report)

	for _, want := range []string{
		"# Run Report",
		"Generated: 2026-01-02T03:04:05Z",
		"## Run Summary",
		"| Total Events | 3 |",
		"## Beam Set-ups",
		"| 11 | -11 | 1000 | lepton-lepton |",
		"## Channels",
		"## Failures",
		"| 22 | 22 | 100 | 1 | 0 | 0 | 0 |",
		"## Top Final-State Species",
		"| 11 | -11 | 1000 | 1 | 22 | - | 2 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	md := RenderMarkdown(&Report{GeneratedAt: fixedTime(), RunID: "r"})

	for _, want := range []string{
		"No beam set-ups available.",
		"No channel totals available.",
		"No failures recorded.",
		"No final-state species recorded.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	rows := []SetupMetricRow{
		{ID1: 2212, ID2: 2212, BeamEnergy: 70, Channel: "hadron-hadron", SqrtS: 11.5377, TotalEvents: 10, Succeeded: 9, SuccessRate: 0.9, AttemptsMax: 4},
	}

	csv := RenderCSV(rows)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id1,id2,beam_energy,channel,sqrt_s") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2212,2212,70,hadron-hadron,11.537700,10,9,0.900000") {
		t.Errorf("unexpected row: %s", lines[1])
	}
}

func TestRenderProductsCSV_Quoting(t *testing.T) {
	csv := RenderProductsCSV([]ProductRow{{ID1: 1, ID2: 2, BeamEnergy: 3, Rank: 1, ProductID: 9, Name: `odd,"name"`, Count: 4}})
	if !strings.Contains(csv, `1,2,3,1,9,"odd,""name""",4`) {
		t.Errorf("name not quoted: %s", csv)
	}
}

func TestWriteFiles(t *testing.T) {
	eventStore, aggStore := setupTestData(t)
	report, err := NewGenerator(eventStore, aggStore).WithClock(fixedTime).Generate(context.Background(), testRunID)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteFiles(dir, report)
	if err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 files, got %v", paths)
	}
	if filepath.Base(paths[0]) != "report_0123456789ab.md" {
		t.Errorf("unexpected report name %s", paths[0])
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.Size() == 0 {
			t.Errorf("file %s missing or empty: %v", p, err)
		}
	}
}
