package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/statesynth/mealycache/pkg/storage"
	"github.com/statesynth/mealycache/pkg/storage/test"
)

func TestMemoryBackend(t *testing.T) {
	test.RunAllTests(t, func(t *testing.T) storage.SnapshotStore {
		return New()
	})
}

func TestHistoryIsBounded(t *testing.T) {
	ds := New(WithMaxHistory(2))
	ctx := context.Background()

	for _, id := range []string{"01", "02", "03"} {
		require.NoError(t, ds.WriteSnapshot(ctx, &storage.SnapshotRecord{ID: id, Name: "run"}))
	}

	history := ds.History("run")
	require.Len(t, history, 2)
	require.Equal(t, "02", history[0].ID)
	require.Equal(t, "03", history[1].ID)
}

func TestRecordsAreCopied(t *testing.T) {
	ds := New()
	ctx := context.Background()

	rec := &storage.SnapshotRecord{ID: "01", Name: "run", Payload: []byte("abc")}
	require.NoError(t, ds.WriteSnapshot(ctx, rec))
	rec.Payload[0] = 'x'

	got, err := ds.ReadSnapshot(ctx, "run")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got.Payload)

	got.Payload[0] = 'y'
	again, err := ds.ReadSnapshot(ctx, "run")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), again.Payload)
}
