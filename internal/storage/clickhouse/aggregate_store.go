package clickhouse

import (
	"context"
	"fmt"

	"collider-lab/internal/domain"
	"collider-lab/internal/storage"
)

// AggregateStore implements storage.AggregateStore using ClickHouse.
type AggregateStore struct {
	conn *Conn
}

// NewAggregateStore creates a new AggregateStore.
func NewAggregateStore(conn *Conn) *AggregateStore {
	return &AggregateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AggregateStore = (*AggregateStore)(nil)

// Insert adds a new aggregate. Returns ErrDuplicateKey if key exists.
func (s *AggregateStore) Insert(ctx context.Context, a *domain.ChannelAggregate) error {
	if a.RunID == "" {
		return fmt.Errorf("%w: aggregate without run id", storage.ErrInvalidInput)
	}

	// Check if exists (ReplacingMergeTree will replace, but we want append-only semantics)
	exists, err := s.exists(ctx, a)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	topIDs := make([]int32, len(a.TopProducts))
	topCounts := make([]uint32, len(a.TopProducts))
	for i, p := range a.TopProducts {
		topIDs[i] = int32(p.ID)
		topCounts[i] = uint32(p.Count)
	}

	query := `
		INSERT INTO channel_aggregates (
			run_id, id1, id2, beam_energy, channel, sqrt_s,
			total_events, succeeded, failed, success_rate,
			failed_unsupported, failed_no_particles, failed_no_resonance, failed_exhausted,
			attempts_mean, attempts_median, attempts_p90, attempts_max,
			multiplicity_mean, multiplicity_stddev,
			top_product_ids, top_product_counts
		) VALUES (
			?, ?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?,
			?, ?
		)
	`

	err = s.conn.Exec(ctx, query,
		a.RunID, int32(a.ID1), int32(a.ID2), a.BeamEnergy, string(a.Channel), a.SqrtS,
		uint32(a.TotalEvents), uint32(a.Succeeded), uint32(a.Failed), a.SuccessRate,
		uint32(a.FailedUnsupported), uint32(a.FailedNoParticles), uint32(a.FailedNoResonance), uint32(a.FailedExhausted),
		a.AttemptsMean, a.AttemptsMedian, a.AttemptsP90, uint32(a.AttemptsMax),
		a.MultiplicityMean, a.MultiplicityStddev,
		topIDs, topCounts,
	)
	if err != nil {
		return fmt.Errorf("insert channel aggregate: %w", err)
	}
	return nil
}

// GetByRun retrieves all aggregates of a run, ordered by (id1, id2, beam_energy).
func (s *AggregateStore) GetByRun(ctx context.Context, runID string) ([]*domain.ChannelAggregate, error) {
	query := `
		SELECT
			run_id, id1, id2, beam_energy, channel, sqrt_s,
			total_events, succeeded, failed, success_rate,
			failed_unsupported, failed_no_particles, failed_no_resonance, failed_exhausted,
			attempts_mean, attempts_median, attempts_p90, attempts_max,
			multiplicity_mean, multiplicity_stddev,
			top_product_ids, top_product_counts
		FROM channel_aggregates FINAL
		WHERE run_id = ?
		ORDER BY id1, id2, beam_energy
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get channel aggregates by run: %w", err)
	}
	defer rows.Close()

	var result []*domain.ChannelAggregate
	for rows.Next() {
		var (
			a                                    domain.ChannelAggregate
			id1, id2                             int32
			channel                              string
			total, succeeded, failed             uint32
			unsupported, noParticles, noRes, exh uint32
			attemptsMax                          uint32
			topIDs                               []int32
			topCounts                            []uint32
		)
		err := rows.Scan(
			&a.RunID, &id1, &id2, &a.BeamEnergy, &channel, &a.SqrtS,
			&total, &succeeded, &failed, &a.SuccessRate,
			&unsupported, &noParticles, &noRes, &exh,
			&a.AttemptsMean, &a.AttemptsMedian, &a.AttemptsP90, &attemptsMax,
			&a.MultiplicityMean, &a.MultiplicityStddev,
			&topIDs, &topCounts,
		)
		if err != nil {
			return nil, fmt.Errorf("scan channel aggregate row: %w", err)
		}
		a.ID1, a.ID2 = int(id1), int(id2)
		a.Channel = domain.Channel(channel)
		a.TotalEvents, a.Succeeded, a.Failed = int(total), int(succeeded), int(failed)
		a.FailedUnsupported = int(unsupported)
		a.FailedNoParticles = int(noParticles)
		a.FailedNoResonance = int(noRes)
		a.FailedExhausted = int(exh)
		a.AttemptsMax = int(attemptsMax)
		for i := range topIDs {
			if i >= len(topCounts) {
				break
			}
			a.TopProducts = append(a.TopProducts, domain.ProductFrequency{ID: int(topIDs[i]), Count: int(topCounts[i])})
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channel aggregate rows: %w", err)
	}

	return result, nil
}

func (s *AggregateStore) exists(ctx context.Context, a *domain.ChannelAggregate) (bool, error) {
	query := `
		SELECT count()
		FROM channel_aggregates
		WHERE run_id = ? AND id1 = ? AND id2 = ? AND beam_energy = ?
	`
	var count uint64
	row := s.conn.QueryRow(ctx, query, a.RunID, int32(a.ID1), int32(a.ID2), a.BeamEnergy)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
