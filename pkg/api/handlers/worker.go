package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lecternhq/lectern/pkg/job"
)

// WorkerHandler receives dispatched job payloads on the worker deployment.
type WorkerHandler struct {
	jobs *job.Manager
}

// NewWorkerHandler creates a worker handler over the manager.
func NewWorkerHandler(jobs *job.Manager) *WorkerHandler {
	return &WorkerHandler{jobs: jobs}
}

// ProcessJob handles POST /worker/process-job.
//
// The job runs inline and the response status is the queue's retry signal:
// 200 acknowledges the payload, 500 asks the queue to redeliver it. A
// payload that can never run answers 400 so it is not redelivered.
func (h *WorkerHandler) ProcessJob(w http.ResponseWriter, r *http.Request) {
	var payload job.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		BadRequest(w, "Invalid job payload")
		return
	}
	if !payload.JobType.IsValid() {
		BadRequest(w, "Invalid job type: "+payload.JobType.String())
		return
	}
	if payload.SessionID == "" {
		BadRequest(w, "session_id is required")
		return
	}

	// The manager records and logs the failure; the 500 is what makes the
	// external queue redeliver.
	if err := h.jobs.Run(r.Context(), &payload); err != nil {
		InternalServerError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
