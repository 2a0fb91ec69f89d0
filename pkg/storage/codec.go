package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/oklog/ulid/v2"
	"sigs.k8s.io/yaml"

	"github.com/statesynth/mealycache/pkg/incremental"
)

// Encode turns a snapshot into a record named name. The payload is YAML, so the symbol
// types must be serializable by encoding/json.
func Encode[I, O comparable](name string, snap *incremental.Snapshot[I, O]) (*SnapshotRecord, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	payload, err := yaml.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %q: %w", name, err)
	}

	return &SnapshotRecord{
		ID:        ulid.Make().String(),
		Name:      name,
		Format:    snap.Format,
		Version:   snap.Version,
		Checksum:  xxhash.Sum64(payload),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Decode verifies rec and returns the snapshot it carries.
func Decode[I, O comparable](rec *SnapshotRecord) (*incremental.Snapshot[I, O], error) {
	if sum := xxhash.Sum64(rec.Payload); sum != rec.Checksum {
		return nil, fmt.Errorf("%w: %q has %x, expected %x", ErrChecksumMismatch, rec.Name, sum, rec.Checksum)
	}

	var snap incremental.Snapshot[I, O]
	if err := yaml.Unmarshal(rec.Payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %q: %w", rec.Name, err)
	}

	if snap.Format != rec.Format || snap.Version != rec.Version {
		return nil, fmt.Errorf("%w: record %q says %s/v%d, payload is %s/v%d",
			ErrFormatMismatch, rec.Name, rec.Format, rec.Version, snap.Format, snap.Version)
	}

	return &snap, nil
}

// Save encodes snap and writes it to store under name.
func Save[I, O comparable](ctx context.Context, store SnapshotStore, name string, snap *incremental.Snapshot[I, O]) (*SnapshotRecord, error) {
	rec, err := Encode(name, snap)
	if err != nil {
		return nil, err
	}

	if err := store.WriteSnapshot(ctx, rec); err != nil {
		return nil, fmt.Errorf("write snapshot %q: %w", name, err)
	}

	return rec, nil
}

// Load reads the newest snapshot stored under name.
func Load[I, O comparable](ctx context.Context, store SnapshotStore, name string) (*incremental.Snapshot[I, O], error) {
	rec, err := store.ReadSnapshot(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", name, err)
	}

	return Decode[I, O](rec)
}
