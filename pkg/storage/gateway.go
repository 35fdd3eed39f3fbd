package storage

import (
	"context"
	"io"
	"path"
	"strings"
)

// Gateway layers the user/session key schema and the object metadata policy
// over a backend. All callers go through it; nothing else forms keys.
type Gateway struct {
	store ObjectStore
}

// NewGateway creates a Gateway over the given backend.
func NewGateway(store ObjectStore) *Gateway {
	return &Gateway{store: store}
}

// Store exposes the raw backend for non-user-scoped prefixes
// (the upload staging area lives outside any user namespace).
func (g *Gateway) Store() ObjectStore {
	return g.store
}

// User returns a store bound to the namespace of the given email.
// An empty email binds the anonymous namespace.
func (g *Gateway) User(email string) *UserStore {
	if email == "" {
		email = AnonymousEmail
	}
	return &UserStore{
		store: g.store,
		email: email,
		hash:  UserHash(email),
	}
}

// UserByHash returns a store bound to an already-derived user hash.
// Used when serving files addressed by hash rather than identity.
func (g *Gateway) UserByHash(userHash string) *UserStore {
	return &UserStore{
		store: g.store,
		hash:  userHash,
	}
}

// HealthCheck reports backend health.
func (g *Gateway) HealthCheck(ctx context.Context) error {
	return g.store.HealthCheck(ctx)
}

// Close closes the backend.
func (g *Gateway) Close() error {
	return g.store.Close()
}

// UserStore is an ObjectStore view scoped to one user's namespace.
// It refuses by construction to form keys under any other user.
type UserStore struct {
	store ObjectStore
	email string
	hash  string
}

// Hash returns the user's storage namespace hash.
func (u *UserStore) Hash() string {
	return u.hash
}

// Email returns the identity the store was bound with. Empty when the
// store was resolved by hash.
func (u *UserStore) Email() string {
	return u.email
}

// key forms the full object key for a session-scoped (or, with an empty
// sessionID, user-root) filename.
func (u *UserStore) key(sessionID, filename string) string {
	if sessionID == "" {
		return UserPrefix(u.hash) + filename
	}
	return SessionKey(u.hash, sessionID, filename)
}

// Save atomically writes data under the user's namespace and returns the
// full object key. Overwrites any prior value.
func (u *UserStore) Save(ctx context.Context, sessionID, filename string, data []byte) (string, error) {
	key := u.key(sessionID, filename)
	if err := u.store.Put(ctx, key, data, optionsFor(filename)); err != nil {
		return "", err
	}
	return key, nil
}

// SaveStream atomically writes the contents of r under the user's namespace.
func (u *UserStore) SaveStream(ctx context.Context, sessionID, filename string, r io.Reader) (string, error) {
	key := u.key(sessionID, filename)
	if err := u.store.PutStream(ctx, key, r, optionsFor(filename)); err != nil {
		return "", err
	}
	return key, nil
}

// Get reads a file from the user's namespace.
func (u *UserStore) Get(ctx context.Context, sessionID, filename string) ([]byte, error) {
	return u.store.Get(ctx, u.key(sessionID, filename))
}

// GetStream opens a reader over a file in the user's namespace.
func (u *UserStore) GetStream(ctx context.Context, sessionID, filename string) (io.ReadCloser, error) {
	return u.store.GetStream(ctx, u.key(sessionID, filename))
}

// Delete removes a file from the user's namespace. The bool reports whether
// the file existed.
func (u *UserStore) Delete(ctx context.Context, sessionID, filename string) (bool, error) {
	return u.store.Delete(ctx, u.key(sessionID, filename))
}

// List returns the objects under a session-relative prefix, e.g.
// List(ctx, sid, "pages/") lists the extracted page images.
func (u *UserStore) List(ctx context.Context, sessionID, prefix string) ([]ObjectInfo, error) {
	return u.store.List(ctx, u.key(sessionID, prefix))
}

// DeleteSession removes every object belonging to a session.
func (u *UserStore) DeleteSession(ctx context.Context, sessionID string) error {
	return u.store.DeletePrefix(ctx, SessionPrefix(u.hash, sessionID))
}

// FileURL returns the public path a session file is served from.
func (u *UserStore) FileURL(sessionID, filename string) string {
	return FileURL(u.hash, sessionID, filename)
}

// optionsFor returns the object metadata policy for a filename.
// Status and metadata documents must never be cached; clients poll them.
func optionsFor(filename string) *PutOptions {
	return &PutOptions{
		ContentType:  ContentTypeFor(filename),
		CacheControl: CacheControlFor(filename),
	}
}

// ContentTypeFor infers a MIME type from a filename extension.
func ContentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// CacheControlFor returns the Cache-Control policy for a filename.
// JSON documents are progress state and must be revalidated on every read.
func CacheControlFor(filename string) string {
	if strings.EqualFold(path.Ext(filename), ".json") {
		return "no-cache, max-age=0"
	}
	return "public, max-age=3600"
}
