package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/statesynth/mealycache/pkg/storage"
	"github.com/statesynth/mealycache/pkg/storage/test"
)

func TestFileDatastore(t *testing.T) {
	test.RunAllTests(t, func(t *testing.T) storage.SnapshotStore {
		ds, err := New(t.TempDir())
		require.NoError(t, err)
		return ds
	})
}

func TestSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "snapshots")
	ctx := context.Background()

	ds, err := New(dir)
	require.NoError(t, err)
	rec, err := storage.Save(ctx, ds, "run", test.Snapshot(t))
	require.NoError(t, err)
	ds.Close()

	reopened, err := New(dir)
	require.NoError(t, err)
	got, err := reopened.ReadSnapshot(ctx, "run")
	require.NoError(t, err)
	require.Equal(t, rec.ID, got.ID)
	require.Equal(t, rec.Payload, got.Payload)
}

func TestIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".snapshot-1.tmp"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	ds, err := New(dir)
	require.NoError(t, err)
	names, err := ds.ListSnapshots(context.Background())
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.yaml"), []byte("records: 12"), 0o600))

	ds, err := New(dir)
	require.NoError(t, err)
	_, err = ds.ReadSnapshot(context.Background(), "run")
	require.Error(t, err)
	require.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestHistoryIsBounded(t *testing.T) {
	dir := t.TempDir()
	ds, err := New(dir, WithMaxHistory(1))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ds.WriteSnapshot(ctx, &storage.SnapshotRecord{ID: "01", Name: "run"}))
	require.NoError(t, ds.WriteSnapshot(ctx, &storage.SnapshotRecord{ID: "02", Name: "run"}))

	doc, err := ds.read("run")
	require.NoError(t, err)
	require.Len(t, doc.Records, 1)
	require.Equal(t, "02", doc.Records[0].ID)
}
