package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"collider-lab/internal/domain"
	"collider-lab/internal/storage"
)

// ChannelAggregateStore is an in-memory implementation of storage.AggregateStore.
type ChannelAggregateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ChannelAggregate // keyed by composite key
}

// NewChannelAggregateStore creates a new in-memory channel aggregate store.
func NewChannelAggregateStore() *ChannelAggregateStore {
	return &ChannelAggregateStore{
		data: make(map[string]*domain.ChannelAggregate),
	}
}

// aggregateKey generates a unique key for an aggregate.
func aggregateKey(runID string, id1, id2 int, beamEnergy float64) string {
	return fmt.Sprintf("%s|%d|%d|%g", runID, id1, id2, beamEnergy)
}

// Insert adds a new aggregate. Returns ErrDuplicateKey if key exists.
func (s *ChannelAggregateStore) Insert(_ context.Context, a *domain.ChannelAggregate) error {
	if a == nil || a.RunID == "" {
		return storage.ErrInvalidInput
	}

	key := aggregateKey(a.RunID, a.ID1, a.ID2, a.BeamEnergy)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	aggCopy := *a
	aggCopy.TopProducts = append([]domain.ProductFrequency(nil), a.TopProducts...)
	s.data[key] = &aggCopy
	return nil
}

// GetByRun retrieves all aggregates of a run, ordered by (id1, id2, beam_energy).
func (s *ChannelAggregateStore) GetByRun(_ context.Context, runID string) ([]*domain.ChannelAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ChannelAggregate
	for _, a := range s.data {
		if a.RunID == runID {
			aggCopy := *a
			aggCopy.TopProducts = append([]domain.ProductFrequency(nil), a.TopProducts...)
			result = append(result, &aggCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ID1 != result[j].ID1 {
			return result[i].ID1 < result[j].ID1
		}
		if result[i].ID2 != result[j].ID2 {
			return result[i].ID2 < result[j].ID2
		}
		return result[i].BeamEnergy < result[j].BeamEnergy
	})

	return result, nil
}

var _ storage.AggregateStore = (*ChannelAggregateStore)(nil)
