package blobstore

import (
	"context"
	"io"
)

// BlobHandle describes one stored blob payload.
type BlobHandle struct {
	Name        string
	SizeBytes   int64
	ContentType string
}

// BlobStore is the byte-storage abstraction used by RecordService. Names are
// generated by the store, never supplied by callers.
type BlobStore interface {
	// EnsureRoot initializes the storage root. It is idempotent and must
	// succeed before the store is used.
	EnsureRoot() error
	// Store writes the full payload durably and returns a handle only after
	// the write is complete. A partially written payload is never visible
	// under the returned name.
	Store(ctx context.Context, r io.Reader, contentType string) (BlobHandle, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes a blob. It reports false without error when the name
	// does not exist.
	Delete(ctx context.Context, name string) (bool, error)
	// List returns the names of all stored blobs.
	List(ctx context.Context) ([]string, error)
}
