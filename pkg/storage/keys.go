package storage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Key layout:
//
//	users/{user_hash}/{session_id}/{original filename}
//	users/{user_hash}/{session_id}/metadata.json
//	users/{user_hash}/{session_id}/status.json
//	users/{user_hash}/{session_id}/pages/page_NNN.png
//	users/{user_hash}/{session_id}/results/page_NNN.txt
//	_upload_sessions/upload_sessions/{upload_id}.json
//	_upload_sessions/upload_chunks/{upload_id}/chunk_NNNN.bin
const (
	usersRoot   = "users"
	uploadsRoot = "_upload_sessions"

	MetadataName = "metadata.json"
	StatusName   = "status.json"
	PagesDir     = "pages"
	ResultsDir   = "results"
)

var (
	pageFilePattern   = regexp.MustCompile(`^page_(\d{3,})\.png$`)
	resultFilePattern = regexp.MustCompile(`^page_(\d{3,})\.txt$`)
)

// UserPrefix returns the key prefix for a user namespace.
func UserPrefix(userHash string) string {
	return usersRoot + "/" + userHash + "/"
}

// SessionPrefix returns the key prefix for a session.
func SessionPrefix(userHash, sessionID string) string {
	return UserPrefix(userHash) + sessionID + "/"
}

// SessionKey returns the key of a file directly in a session.
func SessionKey(userHash, sessionID, filename string) string {
	return SessionPrefix(userHash, sessionID) + filename
}

// PageKey returns the key of an extracted page image (1-indexed).
func PageKey(userHash, sessionID string, page int) string {
	return SessionPrefix(userHash, sessionID) + PageName(page)
}

// ResultKey returns the key of an OCR result (1-indexed).
func ResultKey(userHash, sessionID string, page int) string {
	return SessionPrefix(userHash, sessionID) + ResultName(page)
}

// PageName returns the session-relative name of a page image, e.g.
// "pages/page_007.png".
func PageName(page int) string {
	return fmt.Sprintf("%s/page_%03d.png", PagesDir, page)
}

// ResultName returns the session-relative name of an OCR result, e.g.
// "results/page_007.txt".
func ResultName(page int) string {
	return fmt.Sprintf("%s/page_%03d.txt", ResultsDir, page)
}

// ParsePageName extracts the page number from a name like "page_007.png".
// The second return reports whether the name matched.
func ParsePageName(name string) (int, bool) {
	return parseNumbered(pageFilePattern, name)
}

// ParseResultName extracts the page number from a name like "page_007.txt".
func ParseResultName(name string) (int, bool) {
	return parseNumbered(resultFilePattern, name)
}

func parseNumbered(pattern *regexp.Regexp, name string) (int, bool) {
	m := pattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// UploadTrackerKey returns the key of an upload tracker document.
func UploadTrackerKey(uploadID string) string {
	return uploadsRoot + "/upload_sessions/" + uploadID + ".json"
}

// UploadChunkPrefix returns the key prefix holding an upload's chunk blobs.
func UploadChunkPrefix(uploadID string) string {
	return uploadsRoot + "/upload_chunks/" + uploadID + "/"
}

// UploadChunkKey returns the key of a single chunk blob (zero-padded to 4).
func UploadChunkKey(uploadID string, chunk int) string {
	return UploadChunkPrefix(uploadID) + ChunkName(chunk)
}

// ChunkName returns the blob name of a chunk, e.g. "chunk_0003.bin".
func ChunkName(chunk int) string {
	return fmt.Sprintf("chunk_%04d.bin", chunk)
}

// ParseChunkName extracts the chunk number from a name like "chunk_0003.bin".
func ParseChunkName(name string) (int, bool) {
	const prefix, suffix = "chunk_", ".bin"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	n, err := strconv.Atoi(name[len(prefix) : len(name)-len(suffix)])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FileURL returns the public path a stored session file is served from.
func FileURL(userHash, sessionID, filename string) string {
	return "/storage/" + userHash + "/" + sessionID + "/" + filename
}
