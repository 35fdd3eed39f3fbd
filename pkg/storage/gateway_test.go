package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternhq/lectern/pkg/storage"
	"github.com/lecternhq/lectern/pkg/storage/memory"
)

// recordingStore captures the PutOptions of the last write so tests can
// assert the gateway's object metadata policy.
type recordingStore struct {
	*memory.Store
	lastOpts *storage.PutOptions
}

func (r *recordingStore) Put(ctx context.Context, key string, data []byte, opts *storage.PutOptions) error {
	r.lastOpts = opts
	return r.Store.Put(ctx, key, data, opts)
}

func (r *recordingStore) PutStream(ctx context.Context, key string, rd io.Reader, opts *storage.PutOptions) error {
	r.lastOpts = opts
	return r.Store.PutStream(ctx, key, rd, opts)
}

func TestUserStore_SaveFormsSessionKey(t *testing.T) {
	t.Parallel()

	backend := memory.New()
	gateway := storage.NewGateway(backend)
	ctx := context.Background()

	user := gateway.User("alice@example.com")
	key, err := user.Save(ctx, "sess-1", "report.pdf", []byte("doc"))
	require.NoError(t, err)
	assert.Equal(t, "users/"+user.Hash()+"/sess-1/report.pdf", key)

	// The object is readable through the backend under exactly that key.
	data, err := backend.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("doc"), data)
}

func TestUserStore_SaveAtUserRoot(t *testing.T) {
	t.Parallel()

	gateway := storage.NewGateway(memory.New())
	ctx := context.Background()

	user := gateway.User("alice@example.com")
	key, err := user.Save(ctx, "", "profile.json", []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, "users/"+user.Hash()+"/profile.json", key)
}

func TestUserStore_MetadataPolicy(t *testing.T) {
	t.Parallel()

	backend := &recordingStore{Store: memory.New()}
	gateway := storage.NewGateway(backend)
	ctx := context.Background()

	user := gateway.User("alice@example.com")

	_, err := user.Save(ctx, "sess-1", "status.json", []byte("{}"))
	require.NoError(t, err)
	require.NotNil(t, backend.lastOpts)
	assert.Equal(t, "application/json", backend.lastOpts.ContentType)
	assert.Equal(t, "no-cache, max-age=0", backend.lastOpts.CacheControl)

	_, err = user.SaveStream(ctx, "sess-1", "pages/page_001.png", strings.NewReader("png"))
	require.NoError(t, err)
	require.NotNil(t, backend.lastOpts)
	assert.Equal(t, "image/png", backend.lastOpts.ContentType)
	assert.Equal(t, "public, max-age=3600", backend.lastOpts.CacheControl)
}

func TestUserStore_RoundTrip(t *testing.T) {
	t.Parallel()

	gateway := storage.NewGateway(memory.New())
	ctx := context.Background()
	user := gateway.User("alice@example.com")

	_, err := user.Save(ctx, "sess-1", "results/page_001.txt", []byte("hello"))
	require.NoError(t, err)

	data, err := user.Get(ctx, "sess-1", "results/page_001.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	rc, err := user.GetStream(ctx, "sess-1", "results/page_001.txt")
	require.NoError(t, err)
	streamed, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, []byte("hello"), streamed)

	existed, err := user.Delete(ctx, "sess-1", "results/page_001.txt")
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = user.Get(ctx, "sess-1", "results/page_001.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	existed, err = user.Delete(ctx, "sess-1", "results/page_001.txt")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestUserStore_ListRelativeNames(t *testing.T) {
	t.Parallel()

	gateway := storage.NewGateway(memory.New())
	ctx := context.Background()
	user := gateway.User("alice@example.com")

	for _, name := range []string{"pages/page_002.png", "pages/page_001.png", "metadata.json"} {
		_, err := user.Save(ctx, "sess-1", name, []byte("x"))
		require.NoError(t, err)
	}

	infos, err := user.List(ctx, "sess-1", "pages/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "page_001.png", infos[0].Name)
	assert.Equal(t, "page_002.png", infos[1].Name)
}

func TestUserStore_DeleteSession(t *testing.T) {
	t.Parallel()

	backend := memory.New()
	gateway := storage.NewGateway(backend)
	ctx := context.Background()
	user := gateway.User("alice@example.com")

	for _, name := range []string{"metadata.json", "pages/page_001.png", "results/page_001.txt"} {
		_, err := user.Save(ctx, "sess-1", name, []byte("x"))
		require.NoError(t, err)
	}
	_, err := user.Save(ctx, "sess-2", "metadata.json", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, user.DeleteSession(ctx, "sess-1"))

	infos, err := user.List(ctx, "sess-1", "")
	require.NoError(t, err)
	assert.Empty(t, infos)

	// The sibling session is untouched.
	_, err = user.Get(ctx, "sess-2", "metadata.json")
	assert.NoError(t, err)
}

func TestGateway_UserNamespaces(t *testing.T) {
	t.Parallel()

	gateway := storage.NewGateway(memory.New())

	alice := gateway.User("alice@example.com")
	bob := gateway.User("bob@example.com")
	assert.NotEqual(t, alice.Hash(), bob.Hash())
	assert.Equal(t, "alice@example.com", alice.Email())

	anon := gateway.User("")
	assert.Equal(t, storage.AnonymousEmail, anon.Email())
	assert.Equal(t, storage.UserHash(storage.AnonymousEmail), anon.Hash())
}

func TestGateway_UserByHash(t *testing.T) {
	t.Parallel()

	gateway := storage.NewGateway(memory.New())
	ctx := context.Background()

	alice := gateway.User("alice@example.com")
	_, err := alice.Save(ctx, "sess-1", "metadata.json", []byte("{}"))
	require.NoError(t, err)

	// Resolving by hash reaches the same namespace without knowing the email.
	byHash := gateway.UserByHash(alice.Hash())
	assert.Empty(t, byHash.Email())

	data, err := byHash.Get(ctx, "sess-1", "metadata.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), data)
}

func TestUserStore_FileURL(t *testing.T) {
	t.Parallel()

	gateway := storage.NewGateway(memory.New())
	user := gateway.User("alice@example.com")

	assert.Equal(t, "/storage/"+user.Hash()+"/sess-1/pages/page_001.png",
		user.FileURL("sess-1", "pages/page_001.png"))
}
