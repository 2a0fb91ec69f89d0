// Package test holds the conformance tests every [storage.SnapshotStore] has to pass.
package test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/statesynth/mealycache/pkg/incremental"
	"github.com/statesynth/mealycache/pkg/storage"
	"github.com/statesynth/mealycache/pkg/word"
)

// Factory returns a new empty store. The store is closed by the test.
type Factory func(t *testing.T) storage.SnapshotStore

func RunAllTests(t *testing.T, newStore Factory) {
	t.Run("TestWriteAndRead", func(t *testing.T) { WriteAndReadTest(t, newStore(t)) })
	t.Run("TestReadReturnsNewest", func(t *testing.T) { ReadReturnsNewestTest(t, newStore(t)) })
	t.Run("TestReadNotFound", func(t *testing.T) { ReadNotFoundTest(t, newStore(t)) })
	t.Run("TestListSnapshots", func(t *testing.T) { ListSnapshotsTest(t, newStore(t)) })
	t.Run("TestInvalidName", func(t *testing.T) { InvalidNameTest(t, newStore(t)) })
	t.Run("TestCollision", func(t *testing.T) { CollisionTest(t, newStore(t)) })
	t.Run("TestSaveAndLoad", func(t *testing.T) { SaveAndLoadTest(t, newStore(t)) })
}

// Snapshot returns the snapshot of a small tree model.
func Snapshot(t *testing.T) *incremental.Snapshot[string, string] {
	t.Helper()
	m := incremental.NewTreeModel[string, string]()
	m.AddAlphabetSymbol("a")
	m.AddAlphabetSymbol("b")
	require.NoError(t, m.Insert(word.Of("a", "b"), word.Of("0", "1")))
	require.NoError(t, m.Insert(word.Of("b"), word.Of("err")))
	return m.Snapshot()
}

func WriteAndReadTest(t *testing.T, ds storage.SnapshotStore) {
	defer ds.Close()
	ctx := context.Background()

	rec, err := storage.Encode("run", Snapshot(t))
	require.NoError(t, err)
	require.NoError(t, ds.WriteSnapshot(ctx, rec))

	got, err := ds.ReadSnapshot(ctx, "run")
	require.NoError(t, err)
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func ReadReturnsNewestTest(t *testing.T, ds storage.SnapshotStore) {
	defer ds.Close()
	ctx := context.Background()

	var last *storage.SnapshotRecord
	for i := 0; i < 3; i++ {
		rec, err := storage.Encode("run", Snapshot(t))
		require.NoError(t, err)
		require.NoError(t, ds.WriteSnapshot(ctx, rec))
		last = rec
	}

	got, err := ds.ReadSnapshot(ctx, "run")
	require.NoError(t, err)
	require.Equal(t, last.ID, got.ID)
}

func ReadNotFoundTest(t *testing.T, ds storage.SnapshotStore) {
	defer ds.Close()

	_, err := ds.ReadSnapshot(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func ListSnapshotsTest(t *testing.T, ds storage.SnapshotStore) {
	defer ds.Close()
	ctx := context.Background()

	names, err := ds.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Empty(t, names)

	for _, name := range []string{"zeta", "alpha", "mid", "alpha"} {
		rec, err := storage.Encode(name, Snapshot(t))
		require.NoError(t, err)
		require.NoError(t, ds.WriteSnapshot(ctx, rec))
	}

	names, err = ds.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func InvalidNameTest(t *testing.T, ds storage.SnapshotStore) {
	defer ds.Close()

	for _, name := range []string{"", " ", "../up", "a/b", ".hidden"} {
		err := ds.WriteSnapshot(context.Background(), &storage.SnapshotRecord{ID: "01", Name: name})
		require.ErrorIs(t, err, storage.ErrInvalidName, "name %q", name)
	}
}

func CollisionTest(t *testing.T, ds storage.SnapshotStore) {
	defer ds.Close()
	ctx := context.Background()

	rec, err := storage.Encode("run", Snapshot(t))
	require.NoError(t, err)
	require.NoError(t, ds.WriteSnapshot(ctx, rec))
	require.ErrorIs(t, ds.WriteSnapshot(ctx, rec), storage.ErrCollision)
}

func SaveAndLoadTest(t *testing.T, ds storage.SnapshotStore) {
	defer ds.Close()
	ctx := context.Background()

	snap := Snapshot(t)
	_, err := storage.Save(ctx, ds, "run", snap)
	require.NoError(t, err)

	got, err := storage.Load[string, string](ctx, ds, "run")
	require.NoError(t, err)
	if diff := cmp.Diff(snap, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	m, err := incremental.Restore(got)
	require.NoError(t, err)
	require.Equal(t, word.Of("0", "1"), m.Lookup(word.Of("a", "b")))
}
