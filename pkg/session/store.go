package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lecternhq/lectern/internal/logger"
	"github.com/lecternhq/lectern/pkg/storage"
)

// Store is the read/write surface for session documents.
//
// Writes to metadata.json go through a per-session mutex held for the whole
// read-modify-write, so concurrent job creations never lose an append. All
// other session files live under distinct keys and need no coordination.
type Store struct {
	gateway *storage.Gateway

	// locks maps sessionID to its *sync.Mutex. Entries are never removed;
	// sessions are UUIDs and the mutexes are tiny.
	locks sync.Map
}

// NewStore creates a session store over the gateway.
func NewStore(gateway *storage.Gateway) *Store {
	return &Store{gateway: gateway}
}

// lock returns the mutex guarding one session's metadata.
func (s *Store) lock(sessionID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Create generates a new session for the user and persists its metadata.
func (s *Store) Create(ctx context.Context, userEmail string) (*Metadata, error) {
	user := s.gateway.User(userEmail)

	meta := &Metadata{
		SessionID: uuid.NewString(),
		UserEmail: user.Email(),
		UserHash:  user.Hash(),
		CreatedAt: time.Now().UTC(),
		Status:    StatusCreated,
		Jobs:      []JobRef{},
	}

	if err := s.saveMetadata(ctx, user, meta); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	logger.Info("Session created",
		logger.SessionID(meta.SessionID),
		logger.UserEmail(meta.UserEmail),
		logger.UserHash(meta.UserHash))

	return meta, nil
}

// Get loads session metadata. Returns ErrSessionNotFound when the session
// has no metadata.json.
func (s *Store) Get(ctx context.Context, userEmail, sessionID string) (*Metadata, error) {
	return s.load(ctx, s.gateway.User(userEmail), sessionID)
}

// AppendJob records a job in the session's job log under the session lock.
// A missing metadata.json is created on the spot so a job reference is
// never dropped.
func (s *Store) AppendJob(ctx context.Context, userEmail, sessionID, jobID, jobType string) error {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	user := s.gateway.User(userEmail)
	now := time.Now().UTC()

	meta, err := s.load(ctx, user, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		meta = &Metadata{
			SessionID: sessionID,
			UserEmail: user.Email(),
			UserHash:  user.Hash(),
			CreatedAt: now,
			Status:    StatusCreated,
			Jobs:      []JobRef{},
		}
	} else if err != nil {
		return err
	}

	meta.Jobs = append(meta.Jobs, JobRef{JobID: jobID, JobType: jobType, CreatedAt: now})

	if err := s.saveMetadata(ctx, user, meta); err != nil {
		return fmt.Errorf("failed to append job to session %s: %w", sessionID, err)
	}
	return nil
}

// List returns the IDs of every session under the user's namespace, in
// key order. A session is any prefix holding at least one object, so a
// session whose metadata.json was lost still shows up and can be cleaned.
func (s *Store) List(ctx context.Context, userEmail string) ([]string, error) {
	user := s.gateway.User(userEmail)

	objects, err := s.gateway.Store().List(ctx, storage.UserPrefix(user.Hash()))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for user %s: %w", user.Hash(), err)
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0, len(objects))
	for _, obj := range objects {
		id, rest, ok := strings.Cut(obj.Name, "/")
		if !ok || rest == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// Delete removes every object belonging to the session. Returns
// ErrSessionNotFound when the session does not exist.
func (s *Store) Delete(ctx context.Context, userEmail, sessionID string) error {
	user := s.gateway.User(userEmail)

	if _, err := s.load(ctx, user, sessionID); err != nil {
		return err
	}

	if err := user.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}

	logger.Info("Session deleted",
		logger.SessionID(sessionID),
		logger.UserHash(user.Hash()))
	return nil
}

// load reads and decodes metadata.json.
func (s *Store) load(ctx context.Context, user *storage.UserStore, sessionID string) (*Metadata, error) {
	data, err := user.Get(ctx, sessionID, storage.MetadataName)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata for session %s: %w", sessionID, err)
	}
	return &meta, nil
}

// saveMetadata persists metadata.json.
func (s *Store) saveMetadata(ctx context.Context, user *storage.UserStore, meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	_, err = user.Save(ctx, meta.SessionID, storage.MetadataName, data)
	return err
}
