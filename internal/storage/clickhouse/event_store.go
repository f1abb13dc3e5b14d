package clickhouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"collider-lab/internal/domain"
	"collider-lab/internal/storage"
)

// EventStore implements storage.EventStore using ClickHouse.
type EventStore struct {
	conn *Conn
}

// NewEventStore creates a new EventStore.
func NewEventStore(conn *Conn) *EventStore {
	return &EventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const eventColumns = `
	event_id, run_id, id1, id2, beam_energy, rng_seed,
	sqrt_s, channel, status, failure_stage,
	products, seed_id1, seed_id2, attempts,
	charge, baryon, strangeness, charm, bottom,
	lepton_e, lepton_mu, lepton_tau, created_at_ms`

// Insert adds a new record. Returns ErrDuplicateKey if event_id exists.
func (s *EventStore) Insert(ctx context.Context, r *domain.EventRecord) error {
	return s.InsertBulk(ctx, []*domain.EventRecord{r})
}

// InsertBulk adds multiple records. Fails entire batch on any duplicate.
func (s *EventStore) InsertBulk(ctx context.Context, records []*domain.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	// MergeTree does not enforce keys, so duplicates are checked up front
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if _, exists := seen[r.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.EventID] = struct{}{}
		ids = append(ids, r.EventID)
	}

	var count uint64
	row := s.conn.QueryRow(ctx, `SELECT count() FROM event_records WHERE event_id IN (?)`, ids)
	if err := row.Scan(&count); err != nil {
		return fmt.Errorf("check existing events: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO event_records ("+eventColumns+")")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		err = batch.Append(
			r.EventID, r.RunID, int32(r.ID1), int32(r.ID2), r.BeamEnergy, r.RNGSeed,
			r.SqrtS, string(r.Channel), string(r.Status), string(r.FailureStage),
			toInt32s(r.Products), int32(r.SeedID1), int32(r.SeedID2), uint32(r.Attempts),
			r.Charge, r.Baryon, r.Strangeness, r.Charm, r.Bottom,
			r.LeptonE, r.LeptonMu, r.LeptonTau, r.CreatedAtMs,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *EventStore) GetByID(ctx context.Context, eventID string) (*domain.EventRecord, error) {
	rows, err := s.conn.Query(ctx,
		"SELECT "+eventColumns+" FROM event_records WHERE event_id = ? LIMIT 1", eventID)
	if err != nil {
		return nil, fmt.Errorf("query event record: %w", err)
	}
	defer rows.Close()

	records, err := scanEventRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return records[0], nil
}

// GetByRun retrieves all records of a run, ordered by created_at ASC, event_id ASC.
func (s *EventStore) GetByRun(ctx context.Context, runID string) ([]*domain.EventRecord, error) {
	return s.List(ctx, storage.EventFilter{RunID: runID})
}

// List retrieves records matching the filter, ordered by created_at ASC, event_id ASC.
func (s *EventStore) List(ctx context.Context, f storage.EventFilter) ([]*domain.EventRecord, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var (
		conds []string
		args  []any
	)
	if f.RunID != "" {
		conds = append(conds, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Channel != "" {
		conds = append(conds, "channel = ?")
		args = append(args, string(f.Channel))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}

	query := "SELECT " + eventColumns + " FROM event_records"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at_ms ASC, event_id ASC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list event records: %w", err)
	}
	defer rows.Close()

	return scanEventRecords(rows)
}

// scanEventRecords scans rows into records, converting column types.
func scanEventRecords(rows driver.Rows) ([]*domain.EventRecord, error) {
	var records []*domain.EventRecord
	for rows.Next() {
		var (
			r                          domain.EventRecord
			id1, id2, seedID1, seedID2 int32
			attempts                   uint32
			channel, status, stage     string
			products                   []int32
		)
		err := rows.Scan(
			&r.EventID, &r.RunID, &id1, &id2, &r.BeamEnergy, &r.RNGSeed,
			&r.SqrtS, &channel, &status, &stage,
			&products, &seedID1, &seedID2, &attempts,
			&r.Charge, &r.Baryon, &r.Strangeness, &r.Charm, &r.Bottom,
			&r.LeptonE, &r.LeptonMu, &r.LeptonTau, &r.CreatedAtMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event record row: %w", err)
		}
		r.ID1, r.ID2 = int(id1), int(id2)
		r.SeedID1, r.SeedID2 = int(seedID1), int(seedID2)
		r.Attempts = int(attempts)
		r.Channel = domain.Channel(channel)
		r.Status = domain.EventStatus(status)
		r.FailureStage = domain.Stage(stage)
		r.Products = fromInt32s(products)
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event record rows: %w", err)
	}
	return records, nil
}

func toInt32s(ids []int) []int32 {
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = int32(id)
	}
	return out
}

func fromInt32s(ids []int32) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
