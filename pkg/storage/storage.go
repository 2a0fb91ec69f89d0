// Package storage persists suspended cache models so that learning can continue in another
// process.
//
//go:generate mockgen -source storage.go -destination ./mocks/mock_storage.go -package mocks SnapshotStore
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SnapshotRecord is an encoded model snapshot as it is kept by a SnapshotStore.
type SnapshotRecord struct {
	// ID is a ULID, so records of the same name sort by creation time.
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Format    string    `json:"format"`
	Version   int       `json:"version"`
	Checksum  uint64    `json:"checksum,string"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy of r.
func (r *SnapshotRecord) Clone() *SnapshotRecord {
	c := *r
	c.Payload = append([]byte(nil), r.Payload...)
	return &c
}

// SnapshotStore keeps named snapshot records. Writing a name again adds a newer record;
// readers always get the newest one.
type SnapshotStore interface {
	WriteSnapshot(ctx context.Context, rec *SnapshotRecord) error

	// ReadSnapshot returns the newest record stored under name, or ErrNotFound.
	ReadSnapshot(ctx context.Context, name string) (*SnapshotRecord, error)

	// ListSnapshots returns the stored names in ascending order.
	ListSnapshots(ctx context.Context) ([]string, error)

	Close()
}

// ValidateName rejects names that cannot be used as a key by every store.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
