package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestStore_AppendAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	first := BuildRecord{
		ID:        uuid.NewString(),
		StartedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Mode:      "app",
		Outcome:   "success",
		Outputs:   1,
	}
	second := BuildRecord{
		ID:        uuid.NewString(),
		StartedAt: time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC),
		Duration:  700 * time.Millisecond,
		Mode:      "lib",
		Outcome:   "failed",
		Outputs:   0,
		Error:     "engine failure",
	}
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	records, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	require.Equal(t, second.ID, records[0].ID)
	require.Equal(t, "failed", records[0].Outcome)
	require.Equal(t, "engine failure", records[0].Error)
	require.Equal(t, first.ID, records[1].ID)
	require.Equal(t, 1500*time.Millisecond, records[1].Duration)
}

func TestStore_RecentLimit(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		rec := BuildRecord{
			ID:        uuid.NewString(),
			StartedAt: time.Now().Add(time.Duration(i) * time.Minute),
			Mode:      "app",
			Outcome:   "success",
		}
		require.NoError(t, store.Append(ctx, rec))
	}

	records, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
}
