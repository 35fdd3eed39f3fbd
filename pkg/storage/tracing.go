package storage

import (
	"context"
	"errors"
	"io"

	"github.com/lecternhq/lectern/internal/telemetry"
)

// WithTracing wraps a backend so every operation runs inside a span named
// storage.<operation> carrying the object key. Returns the store unchanged
// when telemetry is disabled, so the default deployment pays nothing.
func WithTracing(store ObjectStore) ObjectStore {
	if !telemetry.IsEnabled() {
		return store
	}
	return &tracedStore{inner: store}
}

type tracedStore struct {
	inner ObjectStore
}

// recordSpanError marks the span failed for real faults. A missing object
// is an answer, not a fault.
func recordSpanError(ctx context.Context, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		telemetry.RecordError(ctx, err)
	}
}

func (s *tracedStore) Put(ctx context.Context, key string, data []byte, opts *PutOptions) error {
	ctx, span := telemetry.StartStoreSpan(ctx, "put", key, telemetry.StorageSize(int64(len(data))))
	defer span.End()
	err := s.inner.Put(ctx, key, data, opts)
	recordSpanError(ctx, err)
	return err
}

func (s *tracedStore) PutStream(ctx context.Context, key string, r io.Reader, opts *PutOptions) error {
	ctx, span := telemetry.StartStoreSpan(ctx, "put_stream", key)
	defer span.End()
	err := s.inner.PutStream(ctx, key, r, opts)
	recordSpanError(ctx, err)
	return err
}

func (s *tracedStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "get", key)
	defer span.End()
	data, err := s.inner.Get(ctx, key)
	recordSpanError(ctx, err)
	return data, err
}

// GetStream's span covers the open, not the read; the returned reader
// outlives the call.
func (s *tracedStore) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "get_stream", key)
	defer span.End()
	rc, err := s.inner.GetStream(ctx, key)
	recordSpanError(ctx, err)
	return rc, err
}

func (s *tracedStore) Delete(ctx context.Context, key string) (bool, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "delete", key)
	defer span.End()
	existed, err := s.inner.Delete(ctx, key)
	recordSpanError(ctx, err)
	return existed, err
}

func (s *tracedStore) DeletePrefix(ctx context.Context, prefix string) error {
	ctx, span := telemetry.StartStoreSpan(ctx, "delete_prefix", prefix)
	defer span.End()
	err := s.inner.DeletePrefix(ctx, prefix)
	recordSpanError(ctx, err)
	return err
}

func (s *tracedStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "list", prefix)
	defer span.End()
	infos, err := s.inner.List(ctx, prefix)
	recordSpanError(ctx, err)
	return infos, err
}

func (s *tracedStore) HealthCheck(ctx context.Context) error {
	ctx, span := telemetry.StartStoreSpan(ctx, "health_check", "")
	defer span.End()
	err := s.inner.HealthCheck(ctx)
	recordSpanError(ctx, err)
	return err
}

func (s *tracedStore) Close() error {
	return s.inner.Close()
}
