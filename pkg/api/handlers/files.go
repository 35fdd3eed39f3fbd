package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/lecternhq/lectern/internal/logger"
	"github.com/lecternhq/lectern/pkg/storage"
)

// FileHandler serves stored session files back to clients.
//
// Files are addressed by user hash rather than identity so result URLs can
// be shared without carrying the identity header.
type FileHandler struct {
	gateway *storage.Gateway
}

// NewFileHandler creates a file handler over the storage gateway.
func NewFileHandler(gateway *storage.Gateway) *FileHandler {
	return &FileHandler{gateway: gateway}
}

// Serve handles GET /storage/{user_hash}/{session_id}/{filename...}.
// Streams the file with a content type inferred from the extension. JSON
// documents are never cached; everything else is immutable once written.
func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userHash := chi.URLParam(r, "user_hash")
	sessionID := chi.URLParam(r, "session_id")
	filename := chi.URLParam(r, "*")

	// Reject anything that would resolve outside the session prefix.
	if filename == "" || path.Clean("/"+filename) != "/"+filename {
		NotFound(w, "file not found")
		return
	}

	user := h.gateway.UserByHash(userHash)
	rc, err := user.GetStream(r.Context(), sessionID, filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			NotFound(w, "file not found")
			return
		}
		writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", storage.ContentTypeFor(filename))
	w.Header().Set("Cache-Control", storage.CacheControlFor(filename))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(filename)))

	if _, err := io.Copy(w, rc); err != nil {
		// Headers are gone; all we can do is log the broken transfer.
		logger.WarnCtx(r.Context(), "File stream interrupted",
			logger.UserHash(userHash),
			logger.SessionID(sessionID),
			logger.Filename(filename),
			logger.Err(err))
	}
}
