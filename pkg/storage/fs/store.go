// Package fs provides a filesystem-backed object store implementation.
package fs

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lecternhq/lectern/pkg/storage"
)

// tmpPrefix marks in-flight writes; List skips these names.
const tmpPrefix = ".tmp-"

// Store is a filesystem-backed implementation of storage.ObjectStore.
// Objects are stored as files with the object key as the relative path.
type Store struct {
	mu       sync.RWMutex
	basePath string
	dirMode  os.FileMode
	fileMode os.FileMode
	closed   bool
}

// Config holds configuration for the filesystem object store.
type Config struct {
	// BasePath is the root directory for object storage.
	// Object keys are stored as paths relative to this directory.
	BasePath string

	// CreateDir creates the base directory if it doesn't exist.
	// Default: true
	CreateDir bool

	// DirMode is the permission mode for created directories.
	// Default: 0755
	DirMode os.FileMode

	// FileMode is the permission mode for created files.
	// Default: 0644
	FileMode os.FileMode
}

// DefaultConfig returns the default configuration.
func DefaultConfig(basePath string) Config {
	return Config{
		BasePath:  basePath,
		CreateDir: true,
		DirMode:   0755,
		FileMode:  0644,
	}
}

// New creates a new filesystem object store with the given configuration.
func New(cfg Config) (*Store, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("base path is required")
	}

	if cfg.DirMode == 0 {
		cfg.DirMode = 0755
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0644
	}

	if cfg.CreateDir {
		if err := os.MkdirAll(cfg.BasePath, cfg.DirMode); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("base path is not a directory")
	}

	return &Store{
		basePath: cfg.BasePath,
		dirMode:  cfg.DirMode,
		fileMode: cfg.FileMode,
	}, nil
}

// NewWithPath creates a new filesystem object store with default configuration.
func NewWithPath(basePath string) (*Store, error) {
	return New(DefaultConfig(basePath))
}

// objectPath returns the full filesystem path for an object key.
// Keys use forward slashes as separators.
func (s *Store) objectPath(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

// checkOpen returns ErrStoreClosed after Close.
func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return storage.ErrStoreClosed
	}
	return nil
}

// Put writes data under key. The write lands in a uniquely named temp file
// in the target directory and is renamed into place, so readers observe
// either the old object or the new one.
func (s *Store) Put(ctx context.Context, key string, data []byte, _ *storage.PutOptions) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	path := s.objectPath(key)
	if err := os.MkdirAll(filepath.Dir(path), s.dirMode); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), tmpPrefix+"*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, s.fileMode); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return nil
}

// PutStream writes the contents of r under key with the same atomicity
// as Put.
func (s *Store) PutStream(ctx context.Context, key string, r io.Reader, _ *storage.PutOptions) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	path := s.objectPath(key)
	if err := os.MkdirAll(filepath.Dir(path), s.dirMode); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), tmpPrefix+"*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, s.fileMode); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return nil
}

// Get reads a complete object from the filesystem.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.objectPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return data, nil
}

// GetStream opens a reader over an object.
func (s *Store) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.objectPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return f, nil
}

// Delete removes a single object.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	path := s.objectPath(key)
	err := os.Remove(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	s.cleanEmptyDirs(filepath.Dir(path))
	return true, nil
}

// cleanEmptyDirs removes empty directories up to the base path.
func (s *Store) cleanEmptyDirs(dir string) {
	for dir != s.basePath && strings.HasPrefix(dir, s.basePath) {
		if err := os.Remove(dir); err != nil {
			// directory not empty or already gone, stop
			break
		}
		dir = filepath.Dir(dir)
	}
}

// DeletePrefix removes all objects with a given prefix.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	prefixPath := s.objectPath(prefix)

	info, err := os.Stat(prefixPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // nothing to delete
		}
		return err
	}

	if info.IsDir() {
		if err := os.RemoveAll(prefixPath); err != nil {
			return err
		}
		s.cleanEmptyDirs(filepath.Dir(prefixPath))
		return nil
	}

	if err := os.Remove(prefixPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	s.cleanEmptyDirs(filepath.Dir(prefixPath))

	return nil
}

// List returns all objects under prefix, names relative to the prefix,
// sorted by name.
func (s *Store) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	prefixPath := s.objectPath(prefix)
	var infos []storage.ObjectInfo

	if _, err := os.Stat(prefixPath); err != nil {
		if os.IsNotExist(err) {
			return infos, nil // empty list
		}
		return nil, err
	}

	err := filepath.WalkDir(prefixPath, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		// skip in-flight writes
		if strings.HasPrefix(d.Name(), tmpPrefix) {
			return nil
		}

		relPath, err := filepath.Rel(prefixPath, path)
		if err != nil {
			return err
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}

		infos = append(infos, storage.ObjectInfo{
			Name:     filepath.ToSlash(relPath),
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// HealthCheck verifies the store is accessible and operational.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	_, err := os.Stat(s.basePath)
	return err
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// BasePath returns the base path of the store (for testing).
func (s *Store) BasePath() string {
	return s.basePath
}

// Ensure Store implements storage.ObjectStore.
var _ storage.ObjectStore = (*Store)(nil)
