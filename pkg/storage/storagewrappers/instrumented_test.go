package storagewrappers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/statesynth/mealycache/pkg/storage"
	"github.com/statesynth/mealycache/pkg/storage/memory"
	"github.com/statesynth/mealycache/pkg/storage/mocks"
	"github.com/statesynth/mealycache/pkg/storage/test"
)

func TestInstrumentedStoreConformance(t *testing.T) {
	test.RunAllTests(t, func(t *testing.T) storage.SnapshotStore {
		return NewInstrumentedStore(memory.New(), "conformance")
	})
}

func TestInstrumentedStoreCounts(t *testing.T) {
	ds := NewInstrumentedStore(memory.New(), "counts")
	ctx := context.Background()

	_, err := storage.Save(ctx, ds, "run", test.Snapshot(t))
	require.NoError(t, err)
	_, err = ds.ReadSnapshot(ctx, "run")
	require.NoError(t, err)
	_, err = ds.ReadSnapshot(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = ds.ListSnapshots(ctx)
	require.NoError(t, err)

	require.Equal(t, Metrics{WriteCount: 1, ReadCount: 3}, ds.GetMetrics())
}

func TestInstrumentedStorePassesErrorsThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	wrapped := mocks.NewMockSnapshotStore(ctrl)
	boom := errors.New("boom")

	gomock.InOrder(
		wrapped.EXPECT().WriteSnapshot(gomock.Any(), gomock.Any()).Return(boom),
		wrapped.EXPECT().ReadSnapshot(gomock.Any(), "run").Return(nil, boom),
		wrapped.EXPECT().ListSnapshots(gomock.Any()).Return(nil, boom),
		wrapped.EXPECT().Close(),
	)

	ds := NewInstrumentedStore(wrapped, "mock")
	ctx := context.Background()

	require.ErrorIs(t, ds.WriteSnapshot(ctx, &storage.SnapshotRecord{Name: "run"}), boom)
	_, err := ds.ReadSnapshot(ctx, "run")
	require.ErrorIs(t, err, boom)
	_, err = ds.ListSnapshots(ctx)
	require.ErrorIs(t, err, boom)
	ds.Close()

	require.Equal(t, Metrics{WriteCount: 1, ReadCount: 2}, ds.GetMetrics())
}
