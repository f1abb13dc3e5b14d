package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"collider-lab/internal/domain"
	"collider-lab/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const eventColumns = `
	event_id, run_id, id1, id2, beam_energy, rng_seed,
	sqrt_s, channel, status, failure_stage,
	products, seed_id1, seed_id2, attempts,
	charge, baryon, strangeness, charm, bottom,
	lepton_e, lepton_mu, lepton_tau, created_at_ms`

const insertEventQuery = `
	INSERT INTO event_records (` + eventColumns + `
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10,
		$11, $12, $13, $14,
		$15, $16, $17, $18, $19,
		$20, $21, $22, $23
	)
`

func eventArgs(r *domain.EventRecord) []any {
	return []any{
		r.EventID, r.RunID, r.ID1, r.ID2, r.BeamEnergy, int64(r.RNGSeed),
		r.SqrtS, string(r.Channel), string(r.Status), string(r.FailureStage),
		toInt32s(r.Products), r.SeedID1, r.SeedID2, r.Attempts,
		r.Charge, r.Baryon, r.Strangeness, r.Charm, r.Bottom,
		r.LeptonE, r.LeptonMu, r.LeptonTau, r.CreatedAtMs,
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if event_id exists.
func (s *EventStore) Insert(ctx context.Context, r *domain.EventRecord) error {
	_, err := s.pool.Exec(ctx, insertEventQuery, eventArgs(r)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert event record: %w", err)
	}
	return nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *EventStore) InsertBulk(ctx context.Context, records []*domain.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(insertEventQuery, eventArgs(r)...)
	}

	results := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := results.Exec(); err != nil {
			results.Close()
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert event record in bulk: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *EventStore) GetByID(ctx context.Context, eventID string) (*domain.EventRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM event_records WHERE event_id = $1`, eventID)
	r, err := scanEventRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get event record by id: %w", err)
	}
	return r, nil
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
		args = append(args, f.RunID)
		conds = append(conds, fmt.Sprintf("run_id = $%d", len(args)))
	}
	if f.Channel != "" {
		args = append(args, string(f.Channel))
		conds = append(conds, fmt.Sprintf("channel = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + eventColumns + ` FROM event_records`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at_ms ASC, event_id ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list event records: %w", err)
	}
	defer rows.Close()

	var records []*domain.EventRecord
	for rows.Next() {
		r, err := scanEventRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event record row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event record rows: %w", err)
	}
	return records, nil
}

// scanEventRecord scans a single row into an EventRecord.
func scanEventRecord(row pgx.Row) (*domain.EventRecord, error) {
	var (
		r                      domain.EventRecord
		seed                   int64
		channel, status, stage string
		products               []int32
	)
	err := row.Scan(
		&r.EventID, &r.RunID, &r.ID1, &r.ID2, &r.BeamEnergy, &seed,
		&r.SqrtS, &channel, &status, &stage,
		&products, &r.SeedID1, &r.SeedID2, &r.Attempts,
		&r.Charge, &r.Baryon, &r.Strangeness, &r.Charm, &r.Bottom,
		&r.LeptonE, &r.LeptonMu, &r.LeptonTau, &r.CreatedAtMs,
	)
	if err != nil {
		return nil, err
	}
	r.RNGSeed = uint64(seed)
	r.Channel = domain.Channel(channel)
	r.Status = domain.EventStatus(status)
	r.FailureStage = domain.Stage(stage)
	r.Products = fromInt32s(products)
	return &r, nil
}
