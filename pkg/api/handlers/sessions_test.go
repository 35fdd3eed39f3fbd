package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternhq/lectern/pkg/api/middleware"
	"github.com/lecternhq/lectern/pkg/session"
	"github.com/lecternhq/lectern/pkg/storage"
	"github.com/lecternhq/lectern/pkg/storage/memory"
)

type sessionHarness struct {
	gateway  *storage.Gateway
	sessions *session.Store
	router   http.Handler
}

func newSessionHarness(t *testing.T) *sessionHarness {
	t.Helper()

	gateway := storage.NewGateway(memory.New())
	sessions := session.NewStore(gateway)

	h := NewSessionHandler(sessions)
	r := chi.NewRouter()
	r.Use(middleware.Identity)
	r.Get("/api/sessions/{session_id}", h.Get)
	r.Delete("/api/sessions/{session_id}", h.Delete)

	return &sessionHarness{gateway: gateway, sessions: sessions, router: r}
}

func (h *sessionHarness) do(t *testing.T, method, target, email string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if email != "" {
		req.Header.Set(middleware.HeaderUserEmail, email)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestGetSession(t *testing.T) {
	t.Parallel()
	h := newSessionHarness(t)

	meta, err := h.sessions.Create(context.Background(), testEmail)
	require.NoError(t, err)

	w := h.do(t, http.MethodGet, "/api/sessions/"+meta.SessionID, testEmail)
	require.Equal(t, http.StatusOK, w.Code)

	var got session.Metadata
	decodeInto(t, w, &got)
	assert.Equal(t, meta.SessionID, got.SessionID)
	assert.Equal(t, testEmail, got.UserEmail)
	assert.Equal(t, storage.UserHash(testEmail), got.UserHash)
}

func TestGetSession_OtherUserCannotSee(t *testing.T) {
	t.Parallel()
	h := newSessionHarness(t)

	meta, err := h.sessions.Create(context.Background(), testEmail)
	require.NoError(t, err)

	w := h.do(t, http.MethodGet, "/api/sessions/"+meta.SessionID, "mallory@example.com")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteSession(t *testing.T) {
	t.Parallel()
	h := newSessionHarness(t)
	ctx := context.Background()

	meta, err := h.sessions.Create(ctx, testEmail)
	require.NoError(t, err)
	user := h.gateway.User(testEmail)
	_, err = user.Save(ctx, meta.SessionID, storage.PageName(1), []byte("png"))
	require.NoError(t, err)

	w := h.do(t, http.MethodDelete, "/api/sessions/"+meta.SessionID, testEmail)
	require.Equal(t, http.StatusNoContent, w.Code)

	_, err = h.sessions.Get(ctx, testEmail, meta.SessionID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = user.Get(ctx, meta.SessionID, storage.PageName(1))
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestDeleteSession_Unknown(t *testing.T) {
	t.Parallel()
	h := newSessionHarness(t)

	w := h.do(t, http.MethodDelete, "/api/sessions/ghost", testEmail)
	require.Equal(t, http.StatusNotFound, w.Code)
}
