package storage

import "errors"

var (
	// ErrCollision if a record with the same ID already exists within the store.
	ErrCollision = errors.New("item already exists")

	ErrNotFound = errors.New("not found")

	// ErrInvalidName if a snapshot name is empty, hidden or contains a path separator.
	ErrInvalidName = errors.New("invalid snapshot name")

	// ErrChecksumMismatch if a stored payload does not match the checksum recorded with it.
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

	// ErrFormatMismatch if a record's format disagrees with the snapshot inside it.
	ErrFormatMismatch = errors.New("snapshot format mismatch")
)
