package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lecternhq/lectern/pkg/api/middleware"
	"github.com/lecternhq/lectern/pkg/session"
)

// SessionHandler handles session metadata endpoints.
type SessionHandler struct {
	sessions *session.Store
}

// NewSessionHandler creates a session handler over the store.
func NewSessionHandler(sessions *session.Store) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Get handles GET /api/sessions/{session_id}.
// Returns the session metadata document.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	meta, err := h.sessions.Get(r.Context(), middleware.UserEmail(r.Context()), chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// Delete handles DELETE /api/sessions/{session_id}.
// Removes the session and every file under it.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), middleware.UserEmail(r.Context()), chi.URLParam(r, "session_id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
