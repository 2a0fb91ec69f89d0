// Package file contains a [storage.SnapshotStore] that keeps one YAML document per snapshot
// name in a directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"sigs.k8s.io/yaml"

	"github.com/statesynth/mealycache/pkg/storage"
)

var tracer = otel.Tracer("pkg/storage/file")

const (
	ext               = ".yaml"
	defaultMaxHistory = 4
)

type document struct {
	Records []*storage.SnapshotRecord `json:"records"`
}

// StorageOption configures a [Datastore].
type StorageOption func(ds *Datastore)

// WithMaxHistory sets how many records are kept per name.
func WithMaxHistory(n int) StorageOption {
	return func(ds *Datastore) { ds.maxHistory = max(n, 1) }
}

// Datastore stores snapshots below a directory. Writes replace the document atomically, so a
// reader never sees a partially written file.
type Datastore struct {
	dir        string
	maxHistory int
	mu         sync.Mutex
}

var _ storage.SnapshotStore = (*Datastore)(nil)

// New creates the directory if needed and returns a store rooted at it.
func New(dir string, opts ...StorageOption) (*Datastore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}

	ds := &Datastore{dir: dir, maxHistory: defaultMaxHistory}
	for _, opt := range opts {
		opt(ds)
	}
	return ds, nil
}

// WriteSnapshot see [storage.SnapshotStore].WriteSnapshot.
func (s *Datastore) WriteSnapshot(ctx context.Context, rec *storage.SnapshotRecord) error {
	_, span := tracer.Start(ctx, "file.WriteSnapshot")
	defer span.End()

	if err := storage.ValidateName(rec.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(rec.Name)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	for _, r := range doc.Records {
		if r.ID == rec.ID {
			return fmt.Errorf("%w: %s", storage.ErrCollision, rec.ID)
		}
	}

	doc.Records = append(doc.Records, rec)
	if len(doc.Records) > s.maxHistory {
		doc.Records = doc.Records[len(doc.Records)-s.maxHistory:]
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot document: %w", err)
	}

	return writeAtomic(s.path(rec.Name), data)
}

// ReadSnapshot see [storage.SnapshotStore].ReadSnapshot.
func (s *Datastore) ReadSnapshot(ctx context.Context, name string) (*storage.SnapshotRecord, error) {
	_, span := tracer.Start(ctx, "file.ReadSnapshot")
	defer span.End()

	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(name)
	if err != nil {
		return nil, err
	}
	if len(doc.Records) == 0 {
		return nil, storage.ErrNotFound
	}

	return doc.Records[len(doc.Records)-1], nil
}

// ListSnapshots see [storage.SnapshotStore].ListSnapshots.
func (s *Datastore) ListSnapshots(ctx context.Context) ([]string, error) {
	_, span := tracer.Start(ctx, "file.ListSnapshots")
	defer span.End()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshot directory: %w", err)
	}

	// ReadDir returns entries sorted by filename.
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ext))
	}

	return names, nil
}

// Close does not do anything for [Datastore].
func (s *Datastore) Close() {}

func (s *Datastore) path(name string) string {
	return filepath.Join(s.dir, name+ext)
}

func (s *Datastore) read(name string) (*document, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &document{}, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot document: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot document %q: %w", name, err)
	}
	return &doc, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot document: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename snapshot document: %w", err)
	}

	success = true
	return nil
}
