package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collider-lab/internal/domain"
	"collider-lab/internal/storage"
)

func TestAggregateStore_Insert(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAggregateStore(conn)
	ctx := context.Background()

	agg := &domain.ChannelAggregate{
		RunID:              "run-1",
		ID1:                2212,
		ID2:                2212,
		BeamEnergy:         70,
		Channel:            domain.ChannelHadronHadron,
		SqrtS:              11.5377,
		TotalEvents:        100,
		Succeeded:          95,
		Failed:             5,
		SuccessRate:        0.95,
		FailedExhausted:    5,
		AttemptsMean:       12.5,
		AttemptsMedian:     9,
		AttemptsP90:        31,
		AttemptsMax:        120,
		MultiplicityMean:   3.4,
		MultiplicityStddev: 0.6,
		TopProducts: []domain.ProductFrequency{
			{ID: 2212, Count: 120},
			{ID: 211, Count: 80},
		},
	}

	require.NoError(t, store.Insert(ctx, agg))

	got, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.ChannelHadronHadron, got[0].Channel)
	assert.Equal(t, 100, got[0].TotalEvents)
	assert.Equal(t, 95, got[0].Succeeded)
	assert.Equal(t, 5, got[0].FailedExhausted)
	assert.Equal(t, 0.95, got[0].SuccessRate)
	assert.Equal(t, 9.0, got[0].AttemptsMedian)
	assert.Equal(t, 120, got[0].AttemptsMax)
	assert.Equal(t, agg.TopProducts, got[0].TopProducts)
}

func TestAggregateStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAggregateStore(conn)
	ctx := context.Background()

	agg := &domain.ChannelAggregate{RunID: "run-1", ID1: 11, ID2: -11, BeamEnergy: 45}
	require.NoError(t, store.Insert(ctx, agg))

	err := store.Insert(ctx, agg)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAggregateStore_GetByRunOrdered(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAggregateStore(conn)
	ctx := context.Background()

	for _, a := range []*domain.ChannelAggregate{
		{RunID: "run-1", ID1: 2212, ID2: 2212, BeamEnergy: 70},
		{RunID: "run-1", ID1: 11, ID2: -11, BeamEnergy: 45},
		{RunID: "run-1", ID1: 2212, ID2: 2212, BeamEnergy: 30},
	} {
		require.NoError(t, store.Insert(ctx, a))
	}

	got, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 11, got[0].ID1)
	assert.Equal(t, 30.0, got[1].BeamEnergy)
	assert.Equal(t, 70.0, got[2].BeamEnergy)
}

func TestAggregateStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAggregateStore(conn)

	err := store.Insert(context.Background(), &domain.ChannelAggregate{ID1: 1})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
