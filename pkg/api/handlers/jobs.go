package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lecternhq/lectern/pkg/api/middleware"
	"github.com/lecternhq/lectern/pkg/job"
	"github.com/lecternhq/lectern/pkg/session"
)

// JobHandler handles job creation and session status endpoints.
type JobHandler struct {
	jobs     *job.Manager
	sessions *session.Store
}

// NewJobHandler creates a job handler over the manager and session store.
func NewJobHandler(jobs *job.Manager, sessions *session.Store) *JobHandler {
	return &JobHandler{jobs: jobs, sessions: sessions}
}

// CreateJobRequest is the request body for POST /api/jobs/create.
type CreateJobRequest struct {
	SessionID string        `json:"session_id"`
	JobType   string        `json:"job_type"`
	InputData job.InputData `json:"input_data"`
}

// CreateJobResponse is the response body for POST /api/jobs/create.
type CreateJobResponse struct {
	JobID     string `json:"job_id"`
	SessionID string `json:"session_id"`
}

// Create handles POST /api/jobs/create.
// Validates the job type, records the job on the session and dispatches it.
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.SessionID == "" {
		BadRequest(w, "session_id is required")
		return
	}
	jobType, err := job.ParseType(req.JobType)
	if err != nil {
		writeError(w, err)
		return
	}

	jobID, err := h.jobs.Create(r.Context(), req.SessionID, jobType, req.InputData, middleware.UserEmail(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CreateJobResponse{JobID: jobID, SessionID: req.SessionID})
}

// Status handles GET /api/jobs/{session_id}/status.
// Returns the session's status document, 404 before the first job writes it.
func (h *JobHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.sessions.GetStatus(r.Context(), middleware.UserEmail(r.Context()), chi.URLParam(r, "session_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Rebuild handles POST /api/jobs/{session_id}/rebuild-status.
// Forces a rederivation of the status document from the stored files.
func (h *JobHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	email := middleware.UserEmail(r.Context())
	sessionID := chi.URLParam(r, "session_id")

	// Rebuilding a session that was never created would fabricate one.
	if _, err := h.sessions.Get(r.Context(), email, sessionID); err != nil {
		writeError(w, err)
		return
	}

	status, err := h.sessions.Rebuild(r.Context(), email, sessionID, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
