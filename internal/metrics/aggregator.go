// Package metrics computes per beam set-up statistics over generated events.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"collider-lab/internal/domain"
	"collider-lab/internal/storage"
)

// ErrNoEvents is returned when a run has no records to aggregate.
var ErrNoEvents = errors.New("no events available for aggregation")

// Aggregator computes channel aggregates from event records.
type Aggregator struct {
	eventStore storage.EventStore
	aggStore   storage.AggregateStore

	// TopN bounds ChannelAggregate.TopProducts.
	TopN int
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(eventStore storage.EventStore, aggStore storage.AggregateStore) *Aggregator {
	return &Aggregator{
		eventStore: eventStore,
		aggStore:   aggStore,
		TopN:       DefaultTopProducts,
	}
}

// Compute groups records by beam set-up and returns one aggregate per group,
// ordered by (id1, id2, beam_energy).
func Compute(records []*domain.EventRecord, topN int) []*domain.ChannelAggregate {
	type key struct {
		runID    string
		id1, id2 int
		energy   float64
	}
	groups := make(map[key][]*domain.EventRecord)
	var order []key
	for _, r := range records {
		k := key{r.RunID, r.ID1, r.ID2, r.BeamEnergy}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.runID != b.runID {
			return a.runID < b.runID
		}
		if a.id1 != b.id1 {
			return a.id1 < b.id1
		}
		if a.id2 != b.id2 {
			return a.id2 < b.id2
		}
		return a.energy < b.energy
	})

	out := make([]*domain.ChannelAggregate, 0, len(order))
	for _, k := range order {
		out = append(out, computeFromRecords(groups[k], topN))
	}
	return out
}

// ComputeRun loads all records of a run and aggregates them.
// Returns ErrNoEvents if the run has no records.
func (a *Aggregator) ComputeRun(ctx context.Context, runID string) ([]*domain.ChannelAggregate, error) {
	records, err := a.eventStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	if len(records) == 0 {
		return nil, ErrNoEvents
	}
	return Compute(records, a.TopN), nil
}

// ComputeAndStore computes and persists the aggregates of a run.
// Returns storage.ErrDuplicateKey if an aggregate already exists (append-only).
func (a *Aggregator) ComputeAndStore(ctx context.Context, runID string) ([]*domain.ChannelAggregate, error) {
	aggs, err := a.ComputeRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	for _, agg := range aggs {
		if err := a.aggStore.Insert(ctx, agg); err != nil {
			return nil, err
		}
	}

	return aggs, nil
}
