package reporting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"collider-lab/internal/domain"
	"collider-lab/internal/storage"
)

// ErrNoAggregates is returned when a run has no stored aggregates.
var ErrNoAggregates = errors.New("no aggregates stored for run")

// NameFunc resolves a particle code to a display name. It returns "" when unknown.
type NameFunc func(id int) string

// Generator produces reports from stored data.
type Generator struct {
	eventStore     storage.EventStore
	aggregateStore storage.AggregateStore
	names          NameFunc
	now            func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(eventStore storage.EventStore, aggStore storage.AggregateStore) *Generator {
	return &Generator{
		eventStore:     eventStore,
		aggregateStore: aggStore,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithNames sets the particle name lookup used for product rows.
func (g *Generator) WithNames(names NameFunc) *Generator {
	g.names = names
	return g
}

// Generate produces the report of one run.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	aggs, err := g.aggregateStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(aggs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoAggregates, runID)
	}

	summary, err := g.generateSummary(ctx, runID, aggs)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt:   g.now(),
		RunID:         runID,
		SetupCount:    len(aggs),
		Summary:       *summary,
		SetupMetrics:  generateSetupMetrics(aggs),
		ChannelTotals: generateChannelTotals(aggs),
		Failures:      generateFailures(aggs),
		TopProducts:   g.generateTopProducts(aggs),
	}, nil
}

// generateSummary sums aggregates and reads the record time range.
func (g *Generator) generateSummary(ctx context.Context, runID string, aggs []*domain.ChannelAggregate) (*RunSummary, error) {
	s := &RunSummary{}
	for _, a := range aggs {
		s.TotalEvents += a.TotalEvents
		s.Succeeded += a.Succeeded
		s.Failed += a.Failed
	}
	if s.TotalEvents > 0 {
		s.SuccessRate = float64(s.Succeeded) / float64(s.TotalEvents)
	}

	if g.eventStore == nil {
		return s, nil
	}
	records, err := g.eventStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	for i, r := range records {
		if i == 0 || r.CreatedAtMs < s.DateRangeStart {
			s.DateRangeStart = r.CreatedAtMs
		}
		if r.CreatedAtMs > s.DateRangeEnd {
			s.DateRangeEnd = r.CreatedAtMs
		}
	}
	return s, nil
}

func generateSetupMetrics(aggs []*domain.ChannelAggregate) []SetupMetricRow {
	rows := make([]SetupMetricRow, 0, len(aggs))
	for _, a := range aggs {
		rows = append(rows, SetupMetricRow{
			ID1:                a.ID1,
			ID2:                a.ID2,
			BeamEnergy:         a.BeamEnergy,
			Channel:            string(a.Channel),
			SqrtS:              a.SqrtS,
			TotalEvents:        a.TotalEvents,
			Succeeded:          a.Succeeded,
			SuccessRate:        a.SuccessRate,
			AttemptsMean:       a.AttemptsMean,
			AttemptsMedian:     a.AttemptsMedian,
			AttemptsP90:        a.AttemptsP90,
			AttemptsMax:        a.AttemptsMax,
			MultiplicityMean:   a.MultiplicityMean,
			MultiplicityStddev: a.MultiplicityStddev,
		})
	}
	sortSetups(rows, func(r SetupMetricRow) (int, int, float64) { return r.ID1, r.ID2, r.BeamEnergy })
	return rows
}

func generateChannelTotals(aggs []*domain.ChannelAggregate) []ChannelTotalRow {
	byChannel := make(map[string]*ChannelTotalRow)
	for _, a := range aggs {
		ch := string(a.Channel)
		row, ok := byChannel[ch]
		if !ok {
			row = &ChannelTotalRow{Channel: ch}
			byChannel[ch] = row
		}
		row.Setups++
		row.TotalEvents += a.TotalEvents
		row.Succeeded += a.Succeeded
	}

	rows := make([]ChannelTotalRow, 0, len(byChannel))
	for _, row := range byChannel {
		if row.TotalEvents > 0 {
			row.SuccessRate = float64(row.Succeeded) / float64(row.TotalEvents)
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Channel < rows[j].Channel })
	return rows
}

func generateFailures(aggs []*domain.ChannelAggregate) []FailureRow {
	var rows []FailureRow
	for _, a := range aggs {
		if a.Failed == 0 {
			continue
		}
		rows = append(rows, FailureRow{
			ID1:         a.ID1,
			ID2:         a.ID2,
			BeamEnergy:  a.BeamEnergy,
			Unsupported: a.FailedUnsupported,
			NoParticles: a.FailedNoParticles,
			NoResonance: a.FailedNoResonance,
			Exhausted:   a.FailedExhausted,
		})
	}
	sortSetups(rows, func(r FailureRow) (int, int, float64) { return r.ID1, r.ID2, r.BeamEnergy })
	return rows
}

func (g *Generator) generateTopProducts(aggs []*domain.ChannelAggregate) []ProductRow {
	sorted := make([]*domain.ChannelAggregate, len(aggs))
	copy(sorted, aggs)
	sortSetups(sorted, func(a *domain.ChannelAggregate) (int, int, float64) { return a.ID1, a.ID2, a.BeamEnergy })

	var rows []ProductRow
	for _, a := range sorted {
		for i, p := range a.TopProducts {
			row := ProductRow{
				ID1:        a.ID1,
				ID2:        a.ID2,
				BeamEnergy: a.BeamEnergy,
				Rank:       i + 1,
				ProductID:  p.ID,
				Count:      p.Count,
			}
			if g.names != nil {
				row.Name = g.names(p.ID)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func sortSetups[T any](rows []T, key func(T) (int, int, float64)) {
	sort.SliceStable(rows, func(i, j int) bool {
		a1, a2, ae := key(rows[i])
		b1, b2, be := key(rows[j])
		if a1 != b1 {
			return a1 < b1
		}
		if a2 != b2 {
			return a2 < b2
		}
		return ae < be
	})
}

// WriteFiles writes report_<run>.md, setups_<run>.csv and products_<run>.csv
// into dir and returns the written paths.
func WriteFiles(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	short := r.RunID
	if len(short) > 12 {
		short = short[:12]
	}

	files := []struct {
		name    string
		content string
	}{
		{fmt.Sprintf("report_%s.md", short), RenderMarkdown(r)},
		{fmt.Sprintf("setups_%s.csv", short), RenderCSV(r.SetupMetrics)},
		{fmt.Sprintf("products_%s.csv", short), RenderProductsCSV(r.TopProducts)},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
