// Package handlers provides the HTTP handlers for the pipeline API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/lecternhq/lectern/pkg/job"
	"github.com/lecternhq/lectern/pkg/session"
	"github.com/lecternhq/lectern/pkg/storage"
	"github.com/lecternhq/lectern/pkg/upload"
)

// BadRequest writes a 400 Bad Request error envelope.
func BadRequest(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, errorResponse(detail))
}

// NotFound writes a 404 Not Found error envelope.
func NotFound(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusNotFound, errorResponse(detail))
}

// ServiceUnavailable writes a 503 Service Unavailable error envelope.
func ServiceUnavailable(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusServiceUnavailable, errorResponse(detail))
}

// InternalServerError writes a 500 Internal Server Error envelope.
func InternalServerError(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusInternalServerError, errorResponse(detail))
}

// writeError maps a pipeline error to its HTTP status and writes the error
// envelope. The mapping follows the error taxonomy: validation rejects,
// absence is 404, a storage write deadline is 503 so the client retries the
// same chunk, and everything else is a server fault.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case upload.IsValidation(err), errors.Is(err, job.ErrUnknownType):
		BadRequest(w, err.Error())
	case errors.Is(err, upload.ErrUploadNotFound),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrStatusNotFound),
		errors.Is(err, storage.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, storage.ErrTimeout):
		ServiceUnavailable(w, err.Error())
	default:
		InternalServerError(w, err.Error())
	}
}
