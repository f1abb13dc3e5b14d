package app

import (
	"context"
	"time"

	"collider-lab/internal/domain"
	"collider-lab/internal/observability"
	"collider-lab/internal/storage"
)

// instrumentedEvents records query latency and errors for an EventStore.
type instrumentedEvents struct {
	next     storage.EventStore
	database string
	metrics  *observability.Metrics
}

// Instrument wraps store so every call is reported to m. A nil m returns store unchanged.
func Instrument(store storage.EventStore, database string, m *observability.Metrics) storage.EventStore {
	if m == nil {
		return store
	}
	return &instrumentedEvents{next: store, database: database, metrics: m}
}

func (s *instrumentedEvents) observe(op string, start time.Time, err error) {
	s.metrics.RecordDBQuery(s.database, op, time.Since(start).Seconds(), err)
}

func (s *instrumentedEvents) Insert(ctx context.Context, r *domain.EventRecord) (err error) {
	defer func(start time.Time) { s.observe("insert", start, err) }(time.Now())
	return s.next.Insert(ctx, r)
}

func (s *instrumentedEvents) InsertBulk(ctx context.Context, records []*domain.EventRecord) (err error) {
	defer func(start time.Time) { s.observe("insert_bulk", start, err) }(time.Now())
	return s.next.InsertBulk(ctx, records)
}

func (s *instrumentedEvents) GetByID(ctx context.Context, eventID string) (r *domain.EventRecord, err error) {
	defer func(start time.Time) { s.observe("get_by_id", start, err) }(time.Now())
	return s.next.GetByID(ctx, eventID)
}

func (s *instrumentedEvents) GetByRun(ctx context.Context, runID string) (rs []*domain.EventRecord, err error) {
	defer func(start time.Time) { s.observe("get_by_run", start, err) }(time.Now())
	return s.next.GetByRun(ctx, runID)
}

func (s *instrumentedEvents) List(ctx context.Context, f storage.EventFilter) (rs []*domain.EventRecord, err error) {
	defer func(start time.Time) { s.observe("list", start, err) }(time.Now())
	return s.next.List(ctx, f)
}

var _ storage.EventStore = (*instrumentedEvents)(nil)
