// Package storagewrappers contains [storage.SnapshotStore] decorators.
package storagewrappers

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/statesynth/mealycache/internal/build"
	"github.com/statesynth/mealycache/pkg/storage"
)

var (
	operationDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: build.ProjectName,
		Name:      "snapshot_store_duration_ms",
		Help:      "Time (in ms) spent in snapshot store calls.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 500, 1000, 5000},
	}, []string{"engine", "operation", "success"})

	payloadBytesHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: build.ProjectName,
		Name:      "snapshot_payload_bytes",
		Help:      "Size of snapshot payloads written to and read from the store.",
		Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
	}, []string{"engine", "operation"})
)

var _ storage.SnapshotStore = (*InstrumentedStore)(nil)

// InstrumentedStore counts the calls made to a store and exports their latency.
type InstrumentedStore struct {
	storage.SnapshotStore
	engine string

	countWrites atomic.Uint32
	countReads  atomic.Uint32
}

// NewInstrumentedStore wraps a store. engine labels the exported metrics.
func NewInstrumentedStore(wrapped storage.SnapshotStore, engine string) *InstrumentedStore {
	return &InstrumentedStore{
		SnapshotStore: wrapped,
		engine:        engine,
	}
}

type Metrics struct {
	WriteCount uint32
	ReadCount  uint32
}

func (m *InstrumentedStore) GetMetrics() Metrics {
	return Metrics{
		WriteCount: m.countWrites.Load(),
		ReadCount:  m.countReads.Load(),
	}
}

func (m *InstrumentedStore) observe(op string, start time.Time, err error) {
	operationDurationHistogram.
		WithLabelValues(m.engine, op, strconv.FormatBool(err == nil)).
		Observe(float64(time.Since(start).Milliseconds()))
}

// WriteSnapshot see [storage.SnapshotStore].WriteSnapshot.
func (m *InstrumentedStore) WriteSnapshot(ctx context.Context, rec *storage.SnapshotRecord) error {
	m.countWrites.Add(1)
	start := time.Now()

	err := m.SnapshotStore.WriteSnapshot(ctx, rec)
	m.observe("write", start, err)
	if err == nil {
		payloadBytesHistogram.WithLabelValues(m.engine, "write").Observe(float64(len(rec.Payload)))
	}
	return err
}

// ReadSnapshot see [storage.SnapshotStore].ReadSnapshot.
func (m *InstrumentedStore) ReadSnapshot(ctx context.Context, name string) (*storage.SnapshotRecord, error) {
	m.countReads.Add(1)
	start := time.Now()

	rec, err := m.SnapshotStore.ReadSnapshot(ctx, name)
	m.observe("read", start, err)
	if err == nil {
		payloadBytesHistogram.WithLabelValues(m.engine, "read").Observe(float64(len(rec.Payload)))
	}
	return rec, err
}

// ListSnapshots see [storage.SnapshotStore].ListSnapshots.
func (m *InstrumentedStore) ListSnapshots(ctx context.Context) ([]string, error) {
	m.countReads.Add(1)
	start := time.Now()

	names, err := m.SnapshotStore.ListSnapshots(ctx)
	m.observe("list", start, err)
	return names, err
}
