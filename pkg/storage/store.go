// Package storage defines the object store abstraction every durable byte of
// the pipeline goes through, plus the user/session key schema layered on top.
//
// All pipeline state lives in the store: uploaded documents, extracted page
// images, OCR results, session metadata and the derived status document.
// There is no database; progress is always reconstructible by listing keys.
package storage

import (
	"context"
	"io"
	"time"
)

// PutOptions carries optional object metadata honored by backends that
// support it (the S3 backend maps these to object headers).
type PutOptions struct {
	// ContentType is the MIME type of the object.
	ContentType string

	// CacheControl is the Cache-Control header value stored with the object.
	CacheControl string
}

// ObjectInfo describes an object returned by List.
type ObjectInfo struct {
	// Name is the object key relative to the queried prefix.
	Name string

	// Size is the object size in bytes.
	Size int64

	// Modified is the last modification time.
	Modified time.Time
}

// ObjectStore is the backend-agnostic surface for durable objects.
// Keys use forward slashes as separators on every backend.
//
// Put and PutStream must be atomic: a concurrent Get observes either the
// previous object or the new one, never a partial write.
type ObjectStore interface {
	// Put writes data under key, overwriting any prior object.
	Put(ctx context.Context, key string, data []byte, opts *PutOptions) error

	// PutStream writes the contents of r under key, overwriting any prior object.
	PutStream(ctx context.Context, key string, r io.Reader, opts *PutOptions) error

	// Get returns the full contents of the object at key.
	// Returns ErrNotFound if the object does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// GetStream returns a reader over the object at key. The caller must
	// close it. Returns ErrNotFound if the object does not exist.
	GetStream(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key. The bool reports whether an object
	// existed. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) (bool, error)

	// DeletePrefix removes every object whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// List returns every object whose key starts with prefix, with Name
	// relative to the prefix, sorted by Name.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// HealthCheck verifies the backend is reachable and operational.
	HealthCheck(ctx context.Context) error

	// Close releases backend resources. Operations after Close return
	// ErrStoreClosed.
	Close() error
}
