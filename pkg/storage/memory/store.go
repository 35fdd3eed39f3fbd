// Package memory provides an in-memory object store for tests and
// ephemeral runs.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lecternhq/lectern/pkg/storage"
)

type object struct {
	data     []byte
	modified time.Time
}

// Store is a map-backed implementation of storage.ObjectStore.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	closed  bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		objects: make(map[string]object),
	}
}

// Put writes data under key.
func (s *Store) Put(ctx context.Context, key string, data []byte, _ *storage.PutOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStoreClosed
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = object{data: buf, modified: time.Now()}
	return nil
}

// PutStream writes the contents of r under key.
func (s *Store) PutStream(ctx context.Context, key string, r io.Reader, opts *storage.PutOptions) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, data, opts)
}

// Get returns the contents of the object at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrStoreClosed
	}

	obj, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	return buf, nil
}

// GetStream returns a reader over the object at key.
func (s *Store) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the object at key.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, storage.ErrStoreClosed
	}

	_, existed := s.objects[key]
	delete(s.objects, key)
	return existed, nil
}

// DeletePrefix removes every object whose key starts with prefix.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStoreClosed
	}

	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
		}
	}
	return nil
}

// List returns objects under prefix sorted by name.
func (s *Store) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrStoreClosed
	}

	var infos []storage.ObjectInfo
	for key, obj := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		infos = append(infos, storage.ObjectInfo{
			Name:     strings.TrimPrefix(key, prefix),
			Size:     int64(len(obj.data)),
			Modified: obj.modified,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// HealthCheck reports whether the store is usable.
func (s *Store) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return storage.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// Len returns the number of stored objects (for tests).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Ensure Store implements storage.ObjectStore.
var _ storage.ObjectStore = (*Store)(nil)
