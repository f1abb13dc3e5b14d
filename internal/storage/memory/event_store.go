package memory

import (
	"context"
	"sort"
	"sync"

	"collider-lab/internal/domain"
	"collider-lab/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.EventRecord // keyed by event_id
}

// NewEventStore creates a new in-memory event record store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make(map[string]*domain.EventRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if event_id exists.
func (s *EventStore) Insert(_ context.Context, r *domain.EventRecord) error {
	if r == nil || r.EventID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.EventID] = copyRecord(r)
	return nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *EventStore) InsertBulk(_ context.Context, records []*domain.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(records))

	// First pass: check for duplicates (existing + intra-batch)
	for _, r := range records {
		if r == nil || r.EventID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.EventID] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range records {
		s.data[r.EventID] = copyRecord(r)
	}

	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *EventStore) GetByID(_ context.Context, eventID string) (*domain.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[eventID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyRecord(r), nil
}

// GetByRun retrieves all records of a run, ordered by created_at ASC, event_id ASC.
func (s *EventStore) GetByRun(ctx context.Context, runID string) ([]*domain.EventRecord, error) {
	return s.List(ctx, storage.EventFilter{RunID: runID})
}

// List retrieves records matching the filter, ordered by created_at ASC, event_id ASC.
func (s *EventStore) List(_ context.Context, f storage.EventFilter) ([]*domain.EventRecord, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EventRecord
	for _, r := range s.data {
		if f.RunID != "" && r.RunID != f.RunID {
			continue
		}
		if f.Channel != "" && r.Channel != f.Channel {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		result = append(result, copyRecord(r))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAtMs != result[j].CreatedAtMs {
			return result[i].CreatedAtMs < result[j].CreatedAtMs
		}
		return result[i].EventID < result[j].EventID
	})

	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

func copyRecord(r *domain.EventRecord) *domain.EventRecord {
	c := *r
	c.Products = append([]int(nil), r.Products...)
	return &c
}

var _ storage.EventStore = (*EventStore)(nil)
