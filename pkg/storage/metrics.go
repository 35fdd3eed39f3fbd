package storage

import (
	"context"
	"io"
	"time"
)

// Metrics records object store operations. Implementations live outside
// this package; a nil Metrics disables instrumentation entirely.
type Metrics interface {
	// ObserveOperation records one store call with its duration and outcome.
	ObserveOperation(operation string, d time.Duration, err error)
}

// WithMetrics wraps a backend so every operation is timed and counted.
// Returns the store unchanged when m is nil.
func WithMetrics(store ObjectStore, m Metrics) ObjectStore {
	if m == nil {
		return store
	}
	return &meteredStore{inner: store, metrics: m}
}

type meteredStore struct {
	inner   ObjectStore
	metrics Metrics
}

func (s *meteredStore) observe(op string, start time.Time, err error) {
	s.metrics.ObserveOperation(op, time.Since(start), err)
}

func (s *meteredStore) Put(ctx context.Context, key string, data []byte, opts *PutOptions) error {
	start := time.Now()
	err := s.inner.Put(ctx, key, data, opts)
	s.observe("put", start, err)
	return err
}

func (s *meteredStore) PutStream(ctx context.Context, key string, r io.Reader, opts *PutOptions) error {
	start := time.Now()
	err := s.inner.PutStream(ctx, key, r, opts)
	s.observe("put_stream", start, err)
	return err
}

func (s *meteredStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	data, err := s.inner.Get(ctx, key)
	s.observe("get", start, err)
	return data, err
}

func (s *meteredStore) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := s.inner.GetStream(ctx, key)
	s.observe("get_stream", start, err)
	return rc, err
}

func (s *meteredStore) Delete(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	existed, err := s.inner.Delete(ctx, key)
	s.observe("delete", start, err)
	return existed, err
}

func (s *meteredStore) DeletePrefix(ctx context.Context, prefix string) error {
	start := time.Now()
	err := s.inner.DeletePrefix(ctx, prefix)
	s.observe("delete_prefix", start, err)
	return err
}

func (s *meteredStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	start := time.Now()
	infos, err := s.inner.List(ctx, prefix)
	s.observe("list", start, err)
	return infos, err
}

func (s *meteredStore) HealthCheck(ctx context.Context) error {
	start := time.Now()
	err := s.inner.HealthCheck(ctx)
	s.observe("health_check", start, err)
	return err
}

func (s *meteredStore) Close() error {
	return s.inner.Close()
}
