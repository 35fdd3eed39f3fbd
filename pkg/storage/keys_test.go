package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLayout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "users/abc123def456/", UserPrefix("abc123def456"))
	assert.Equal(t, "users/abc123def456/sess-1/", SessionPrefix("abc123def456", "sess-1"))
	assert.Equal(t, "users/abc123def456/sess-1/report.pdf", SessionKey("abc123def456", "sess-1", "report.pdf"))
	assert.Equal(t, "users/abc123def456/sess-1/pages/page_001.png", PageKey("abc123def456", "sess-1", 1))
	assert.Equal(t, "users/abc123def456/sess-1/results/page_042.txt", ResultKey("abc123def456", "sess-1", 42))
}

func TestPageName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pages/page_007.png", PageName(7))
	assert.Equal(t, "pages/page_120.png", PageName(120))
	// Beyond three digits the number is not truncated.
	assert.Equal(t, "pages/page_1234.png", PageName(1234))

	assert.Equal(t, "results/page_007.txt", ResultName(7))
}

func TestParsePageName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"page_001.png", 1, true},
		{"page_042.png", 42, true},
		{"page_1234.png", 1234, true},
		{"page_01.png", 0, false},
		{"page_001.txt", 0, false},
		{"pages/page_001.png", 0, false},
		{"page_abc.png", 0, false},
		{"something.png", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParsePageName(tt.name)
		assert.Equal(t, tt.ok, ok, "ParsePageName(%q)", tt.name)
		assert.Equal(t, tt.want, got, "ParsePageName(%q)", tt.name)
	}
}

func TestParseResultName(t *testing.T) {
	t.Parallel()

	got, ok := ParseResultName("page_042.txt")
	assert.True(t, ok)
	assert.Equal(t, 42, got)

	_, ok = ParseResultName("page_042.png")
	assert.False(t, ok)
}

func TestUploadKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "_upload_sessions/upload_sessions/up-1.json", UploadTrackerKey("up-1"))
	assert.Equal(t, "_upload_sessions/upload_chunks/up-1/", UploadChunkPrefix("up-1"))
	assert.Equal(t, "_upload_sessions/upload_chunks/up-1/chunk_0003.bin", UploadChunkKey("up-1", 3))
}

func TestChunkName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "chunk_0000.bin", ChunkName(0))
	assert.Equal(t, "chunk_0042.bin", ChunkName(42))
	assert.Equal(t, "chunk_12345.bin", ChunkName(12345))
}

func TestParseChunkName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"chunk_0000.bin", 0, true},
		{"chunk_0042.bin", 42, true},
		{"chunk_12345.bin", 12345, true},
		{"chunk_.bin", 0, false},
		{"chunk_00x2.bin", 0, false},
		{"chunk_0042.tmp", 0, false},
		{"block_0042.bin", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseChunkName(tt.name)
		assert.Equal(t, tt.ok, ok, "ParseChunkName(%q)", tt.name)
		assert.Equal(t, tt.want, got, "ParseChunkName(%q)", tt.name)
	}
}

func TestFileURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/storage/abc123def456/sess-1/pages/page_001.png",
		FileURL("abc123def456", "sess-1", "pages/page_001.png"))
}

func TestUserHash(t *testing.T) {
	t.Parallel()

	// First 12 hex chars of sha256("alice@example.com").
	assert.Equal(t, "ff8d9819fc0e", UserHash("alice@example.com"))

	// An empty email maps to the anonymous namespace.
	assert.Equal(t, UserHash(AnonymousEmail), UserHash(""))
	assert.Equal(t, "255d88697c91", UserHash(""))

	// The email is hashed exactly as given; case matters.
	assert.NotEqual(t, UserHash("alice@example.com"), UserHash("Alice@example.com"))

	assert.Len(t, UserHash("anyone@example.com"), 12)
}

func TestContentTypeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		want     string
	}{
		{"metadata.json", "application/json"},
		{"pages/page_001.png", "image/png"},
		{"scan.JPG", "image/jpeg"},
		{"scan.jpeg", "image/jpeg"},
		{"photo.webp", "image/webp"},
		{"fax.tiff", "image/tiff"},
		{"fax.tif", "image/tiff"},
		{"anim.gif", "image/gif"},
		{"bitmap.bmp", "image/bmp"},
		{"report.pdf", "application/pdf"},
		{"results/page_001.txt", "text/plain; charset=utf-8"},
		{"archive.zip", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ContentTypeFor(tt.filename), "ContentTypeFor(%q)", tt.filename)
	}
}

func TestCacheControlFor(t *testing.T) {
	t.Parallel()

	// Progress documents are polled and must never be served stale.
	assert.Equal(t, "no-cache, max-age=0", CacheControlFor("status.json"))
	assert.Equal(t, "no-cache, max-age=0", CacheControlFor("metadata.JSON"))

	// Everything else is immutable once written.
	assert.Equal(t, "public, max-age=3600", CacheControlFor("pages/page_001.png"))
	assert.Equal(t, "public, max-age=3600", CacheControlFor("report.pdf"))
}
