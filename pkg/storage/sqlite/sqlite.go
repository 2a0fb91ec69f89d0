// Package sqlite contains a [storage.SnapshotStore] backed by an SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/statesynth/mealycache/internal/build"
	"github.com/statesynth/mealycache/pkg/logger"
	"github.com/statesynth/mealycache/pkg/storage"
)

var tracer = otel.Tracer("pkg/storage/sqlite")

func startTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "sqlite."+name)
}

const table = "snapshot"

var columns = []string{"id", "name", "format", "version", "checksum", "payload", "created_at"}

// Datastore provides a SQLite based implementation of [storage.SnapshotStore].
type Datastore struct {
	stbl             sq.StatementBuilderType
	db               *sql.DB
	logger           logger.Logger
	dbStatsCollector prometheus.Collector
}

var _ storage.SnapshotStore = (*Datastore)(nil)

// PrepareDSN adds defaults for journal mode, busy timeout and transaction locking to a raw DSN.
func PrepareDSN(uri string) (string, error) {
	query := url.Values{}
	var err error

	if i := strings.Index(uri, "?"); i != -1 {
		query, err = url.ParseQuery(uri[i+1:])
		if err != nil {
			return uri, fmt.Errorf("error parsing dsn: %w", err)
		}

		uri = uri[:i]
	}

	foundJournalMode := false
	foundBusyTimeout := false
	for _, val := range query["_pragma"] {
		if strings.HasPrefix(val, "journal_mode") {
			foundJournalMode = true
		} else if strings.HasPrefix(val, "busy_timeout") {
			foundBusyTimeout = true
		}
	}

	if !foundJournalMode {
		query.Add("_pragma", "journal_mode(WAL)")
	}
	if !foundBusyTimeout {
		query.Add("_pragma", "busy_timeout(100)")
	}
	if !query.Has("_txlock") {
		query.Set("_txlock", "immediate")
	}

	return uri + "?" + query.Encode(), nil
}

// New opens the database at uri, waits for it to answer and migrates its schema.
func New(ctx context.Context, uri string, cfg *Config) (*Datastore, error) {
	uri, err := PrepareDSN(uri)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite connection: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = cfg.Timeout
	err = backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize sqlite connection: %w", err)
	}

	if err := Migrate(ctx, db, cfg.TargetVersion, cfg.Logger); err != nil {
		db.Close()
		return nil, err
	}

	var collector prometheus.Collector
	if cfg.ExportMetrics {
		collector = collectors.NewDBStatsCollector(db, build.ProjectName)
		if err := prometheus.Register(collector); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize metrics: %w", err)
		}
	}

	return &Datastore{
		stbl:             sq.StatementBuilder.RunWith(db),
		db:               db,
		logger:           cfg.Logger,
		dbStatsCollector: collector,
	}, nil
}

// Close see [storage.SnapshotStore].Close.
func (s *Datastore) Close() {
	if s.dbStatsCollector != nil {
		prometheus.Unregister(s.dbStatsCollector)
	}
	s.db.Close()
}

// WriteSnapshot see [storage.SnapshotStore].WriteSnapshot.
func (s *Datastore) WriteSnapshot(ctx context.Context, rec *storage.SnapshotRecord) error {
	ctx, span := startTrace(ctx, "WriteSnapshot")
	defer span.End()

	if err := storage.ValidateName(rec.Name); err != nil {
		return err
	}

	err := busyRetry(func() error {
		_, err := s.stbl.
			Insert(table).
			Columns(columns...).
			Values(
				rec.ID,
				rec.Name,
				rec.Format,
				rec.Version,
				int64(rec.Checksum),
				rec.Payload,
				rec.CreatedAt.UnixNano(),
			).
			ExecContext(ctx)
		return err
	})
	if err != nil {
		return HandleSQLError(err)
	}

	return nil
}

// ReadSnapshot see [storage.SnapshotStore].ReadSnapshot.
func (s *Datastore) ReadSnapshot(ctx context.Context, name string) (*storage.SnapshotRecord, error) {
	ctx, span := startTrace(ctx, "ReadSnapshot")
	defer span.End()

	var (
		rec       storage.SnapshotRecord
		checksum  int64
		createdAt int64
	)
	err := s.stbl.
		Select(columns...).
		From(table).
		Where(sq.Eq{"name": name}).
		OrderBy("id DESC").
		Limit(1).
		QueryRowContext(ctx).
		Scan(&rec.ID, &rec.Name, &rec.Format, &rec.Version, &checksum, &rec.Payload, &createdAt)
	if err != nil {
		return nil, HandleSQLError(err)
	}

	rec.Checksum = uint64(checksum)
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	return &rec, nil
}

// ListSnapshots see [storage.SnapshotStore].ListSnapshots.
func (s *Datastore) ListSnapshots(ctx context.Context) ([]string, error) {
	ctx, span := startTrace(ctx, "ListSnapshots")
	defer span.End()

	rows, err := s.stbl.
		Select("name").
		Distinct().
		From(table).
		OrderBy("name").
		QueryContext(ctx)
	if err != nil {
		return nil, HandleSQLError(err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, HandleSQLError(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, HandleSQLError(err)
	}

	return names, nil
}

// HandleSQLError processes an SQL error and converts it into a more
// specific error type based on the nature of the SQL error.
func HandleSQLError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code()&0xFF == sqlite3.SQLITE_CONSTRAINT {
			return storage.ErrCollision
		}
	}

	return fmt.Errorf("sql error: %w", err)
}

// SQLite returns SQLITE_BUSY when the database is locked rather than waiting for the lock.
func busyRetry(fn func() error) error {
	const maxRetries = 10
	for retries := 0; ; retries++ {
		err := fn()
		if err == nil {
			return nil
		}

		if isBusyError(err) {
			if retries < maxRetries {
				continue
			}

			return fmt.Errorf("sqlite busy error after %d retries: %w", maxRetries, err)
		}

		return err
	}
}

var busyErrors = map[int]struct{}{
	sqlite3.SQLITE_BUSY_RECOVERY:      {},
	sqlite3.SQLITE_BUSY_SNAPSHOT:      {},
	sqlite3.SQLITE_BUSY_TIMEOUT:       {},
	sqlite3.SQLITE_BUSY:               {},
	sqlite3.SQLITE_LOCKED_SHAREDCACHE: {},
	sqlite3.SQLITE_LOCKED:             {},
}

func isBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	_, ok := busyErrors[sqliteErr.Code()]
	return ok
}
