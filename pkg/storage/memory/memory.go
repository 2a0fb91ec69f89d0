// Package memory contains an in-memory [storage.SnapshotStore]. It is meant for tests and
// for learning runs that never outlive their process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/emirpasic/gods/trees/redblacktree"
	"go.opentelemetry.io/otel"

	"github.com/statesynth/mealycache/pkg/storage"
)

var tracer = otel.Tracer("pkg/storage/memory")

const defaultMaxHistory = 16

// StorageOption configures a [MemoryBackend].
type StorageOption func(ds *MemoryBackend)

// WithMaxHistory sets how many records are kept per name. Older records are dropped once a
// name holds more than n. A value below one keeps only the newest record.
func WithMaxHistory(n int) StorageOption {
	return func(ds *MemoryBackend) { ds.maxHistory = max(n, 1) }
}

// MemoryBackend keeps snapshot records in a red-black tree keyed by name.
type MemoryBackend struct {
	maxHistory int

	// map: name => records, oldest first
	records *redblacktree.Tree // GUARDED_BY(mu).
	mu      sync.RWMutex
}

var _ storage.SnapshotStore = (*MemoryBackend)(nil)

// New creates a new empty [MemoryBackend].
func New(opts ...StorageOption) *MemoryBackend {
	ds := &MemoryBackend{
		maxHistory: defaultMaxHistory,
		records:    redblacktree.NewWithStringComparator(),
	}

	for _, opt := range opts {
		opt(ds)
	}

	return ds
}

// WriteSnapshot see [storage.SnapshotStore].WriteSnapshot.
func (s *MemoryBackend) WriteSnapshot(ctx context.Context, rec *storage.SnapshotRecord) error {
	_, span := tracer.Start(ctx, "memory.WriteSnapshot")
	defer span.End()

	if err := storage.ValidateName(rec.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.history(rec.Name)
	for _, r := range history {
		if r.ID == rec.ID {
			return fmt.Errorf("%w: %s", storage.ErrCollision, rec.ID)
		}
	}

	history = append(history, rec.Clone())
	if len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}
	s.records.Put(rec.Name, history)

	return nil
}

// ReadSnapshot see [storage.SnapshotStore].ReadSnapshot.
func (s *MemoryBackend) ReadSnapshot(ctx context.Context, name string) (*storage.SnapshotRecord, error) {
	_, span := tracer.Start(ctx, "memory.ReadSnapshot")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.history(name)
	if len(history) == 0 {
		return nil, storage.ErrNotFound
	}

	return history[len(history)-1].Clone(), nil
}

// ListSnapshots see [storage.SnapshotStore].ListSnapshots.
func (s *MemoryBackend) ListSnapshots(ctx context.Context) ([]string, error) {
	_, span := tracer.Start(ctx, "memory.ListSnapshots")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, s.records.Size())
	for _, key := range s.records.Keys() {
		names = append(names, key.(string))
	}

	return names, nil
}

// History returns every record kept for name, oldest first.
func (s *MemoryBackend) History(name string) []*storage.SnapshotRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.history(name)
	res := make([]*storage.SnapshotRecord, 0, len(history))
	for _, r := range history {
		res = append(res, r.Clone())
	}
	return res
}

// Close does not do anything for [MemoryBackend].
func (s *MemoryBackend) Close() {}

func (s *MemoryBackend) history(name string) []*storage.SnapshotRecord {
	v, ok := s.records.Get(name)
	if !ok {
		return nil
	}
	return v.([]*storage.SnapshotRecord)
}
