package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/statesynth/mealycache/pkg/logger"
	"github.com/statesynth/mealycache/pkg/storage"
	"github.com/statesynth/mealycache/pkg/storage/test"
)

func newDatastore(t *testing.T, opts ...DatastoreOption) (*Datastore, string) {
	t.Helper()
	uri := filepath.Join(t.TempDir(), "snapshots.db")
	ds, err := New(context.Background(), uri, NewConfig(opts...))
	require.NoError(t, err)
	return ds, uri
}

func TestSQLiteDatastore(t *testing.T) {
	test.RunAllTests(t, func(t *testing.T) storage.SnapshotStore {
		ds, _ := newDatastore(t)
		return ds
	})
}

func TestSurvivesReopen(t *testing.T) {
	ds, uri := newDatastore(t)
	ctx := context.Background()

	rec, err := storage.Save(ctx, ds, "run", test.Snapshot(t))
	require.NoError(t, err)
	ds.Close()

	reopened, err := New(ctx, uri, NewConfig())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.ReadSnapshot(ctx, "run")
	require.NoError(t, err)
	require.Equal(t, rec.ID, got.ID)
	require.Equal(t, rec.Checksum, got.Checksum)
}

func TestMigrationIsLogged(t *testing.T) {
	l, logs := logger.NewObserverLogger("info")
	ds, uri := newDatastore(t, WithLogger(l))
	ds.Close()
	require.Equal(t, 1, logs.FilterMessage("sqlite schema migrated").Len())

	reopened, err := New(context.Background(), uri, NewConfig(WithLogger(l)))
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, 1, logs.FilterMessage("sqlite schema migrated").Len())

	version, err := Version(context.Background(), reopened.db)
	require.NoError(t, err)
	require.Equal(t, int64(1), version)
}

func TestMetrics(t *testing.T) {
	ds, _ := newDatastore(t, WithMetrics())
	ds.Close()

	// the collector was unregistered, so it can be registered again
	again, _ := newDatastore(t, WithMetrics())
	again.Close()
}

func TestNewFailsOnUnreachablePath(t *testing.T) {
	_, err := New(context.Background(), "/invalid/path/that/does/not/exist/db.sqlite", NewConfig(WithTimeout(time.Second)))
	require.Error(t, err)
}

func TestPrepareDSN(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		contains []string
		absent   []string
	}{
		{
			name:     "defaults",
			uri:      "file.db",
			contains: []string{"journal_mode%28WAL%29", "busy_timeout%28100%29", "_txlock=immediate"},
		},
		{
			name:     "keeps_given_pragmas",
			uri:      "file.db?_pragma=journal_mode(DELETE)&_txlock=deferred",
			contains: []string{"journal_mode%28DELETE%29", "busy_timeout%28100%29", "_txlock=deferred"},
			absent:   []string{"WAL", "immediate"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dsn, err := PrepareDSN(tc.uri)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(dsn, "file.db?"))
			for _, s := range tc.contains {
				require.Contains(t, dsn, s)
			}
			for _, s := range tc.absent {
				require.NotContains(t, dsn, s)
			}
		})
	}

	_, err := PrepareDSN("file.db?%zz")
	require.Error(t, err)
}

func TestHandleSQLError(t *testing.T) {
	require.ErrorIs(t, HandleSQLError(sql.ErrNoRows), storage.ErrNotFound)

	boom := errors.New("boom")
	err := HandleSQLError(boom)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestBusyRetryStopsOnOtherErrors(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := busyRetry(func() error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}
