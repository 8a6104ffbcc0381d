package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/storage"
)

func TestRunStore_InsertAndGetByID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(conn)
	ctx := context.Background()

	started := time.Date(2025, time.March, 24, 16, 15, 0, 0, time.UTC)
	run := &domain.RunRecord{
		RunID:      "run-1",
		Detector:   domain.DetectorAnchor,
		Threshold:  5,
		Interval:   domain.Interval1Min,
		Start:      time.Date(2025, time.March, 24, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2025, time.March, 25, 0, 0, 0, 0, time.UTC),
		AnchorTime: domain.TimeOfDay{Hour: 10, Minute: 30},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Analyzed:   2,
		Skipped:    1,
	}

	err := store.Insert(ctx, run)
	require.NoError(t, err)

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, domain.DetectorAnchor, got.Detector)
	assert.Equal(t, 5.0, got.Threshold)
	assert.Equal(t, domain.Interval1Min, got.Interval)
	assert.Empty(t, got.Period)
	assert.True(t, got.Start.Equal(run.Start))
	assert.True(t, got.End.Equal(run.End))
	assert.Equal(t, "10:30", got.AnchorTime.String())
	assert.True(t, got.StartedAt.Equal(run.StartedAt))
	assert.True(t, got.FinishedAt.Equal(run.FinishedAt))
	assert.Equal(t, 2, got.Analyzed)
	assert.Equal(t, 1, got.Skipped)
}

func TestRunStore_PeriodRunKeepsZeroWindow(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(conn)
	ctx := context.Background()

	run := &domain.RunRecord{
		RunID:     "run-period",
		Detector:  domain.DetectorSwing,
		Threshold: 5,
		Interval:  domain.Interval5Min,
		Period:    domain.Period5Days,
		StartedAt: time.Date(2025, time.March, 24, 16, 15, 0, 0, time.UTC),
	}

	err := store.Insert(ctx, run)
	require.NoError(t, err)

	got, err := store.GetByID(ctx, "run-period")
	require.NoError(t, err)

	// A period run has no explicit range; the zero times survive.
	assert.Equal(t, domain.Period5Days, got.Period)
	assert.True(t, got.Start.IsZero())
	assert.True(t, got.End.IsZero())
	assert.True(t, got.AnchorTime.IsZero())
}

func TestRunStore_InsertDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(conn)
	ctx := context.Background()

	run := &domain.RunRecord{
		RunID:     "run-dup",
		Detector:  domain.DetectorSwing,
		Threshold: 5,
		Interval:  domain.Interval1Min,
		StartedAt: time.Date(2025, time.March, 24, 16, 15, 0, 0, time.UTC),
	}

	err := store.Insert(ctx, run)
	require.NoError(t, err)

	err = store.Insert(ctx, run)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunStore_GetByIDNotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(conn)

	_, err := store.GetByID(context.Background(), "nonexistent-run")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_GetRecent(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(conn)
	ctx := context.Background()

	base := time.Date(2025, time.March, 24, 16, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := &domain.RunRecord{
			RunID:     fmt.Sprintf("run-%d", i),
			Detector:  domain.DetectorSwing,
			Threshold: 5,
			Interval:  domain.Interval1Min,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.Insert(ctx, run))
	}

	got, err := store.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first
	assert.Equal(t, "run-2", got[0].RunID)
	assert.Equal(t, "run-1", got[1].RunID)

	// A limit above the row count returns everything
	got, err = store.GetRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = store.GetRecent(ctx, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
