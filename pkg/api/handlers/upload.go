package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lecternhq/lectern/pkg/api/middleware"
	"github.com/lecternhq/lectern/pkg/upload"
)

// HeaderChunkNumber carries the 0-based chunk index on chunk uploads.
const HeaderChunkNumber = "X-Chunk-Number"

// UploadHandler handles the chunked upload endpoints.
type UploadHandler struct {
	uploads *upload.Assembler
}

// NewUploadHandler creates an upload handler over the assembler.
func NewUploadHandler(uploads *upload.Assembler) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// StartUploadRequest is the request body for POST /api/upload/start.
type StartUploadRequest struct {
	Filename    string `json:"filename"`
	TotalSize   int64  `json:"total_size"`
	TotalChunks int    `json:"total_chunks"`
}

// Start handles POST /api/upload/start.
// Declares a new chunked upload and returns its upload ID.
func (h *UploadHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartUploadRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.uploads.Start(r.Context(), req.Filename, req.TotalSize, req.TotalChunks, middleware.UserEmail(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Chunk handles POST /api/upload/{upload_id}/chunk.
// Stores one multipart chunk; the 0-based index arrives in X-Chunk-Number.
func (h *UploadHandler) Chunk(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "upload_id")

	header := r.Header.Get(HeaderChunkNumber)
	if header == "" {
		BadRequest(w, "Missing X-Chunk-Number header")
		return
	}
	chunkNumber, err := strconv.Atoi(header)
	if err != nil {
		BadRequest(w, "Invalid X-Chunk-Number header")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		BadRequest(w, "Missing multipart file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		InternalServerError(w, "Failed to read chunk body")
		return
	}

	result, err := h.uploads.Chunk(r.Context(), uploadID, chunkNumber, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Status handles GET /api/upload/{upload_id}/status.
// Reports received and missing chunks so an interrupted client can resume.
func (h *UploadHandler) Status(w http.ResponseWriter, r *http.Request) {
	result, err := h.uploads.Status(r.Context(), chi.URLParam(r, "upload_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Assemble handles POST /api/upload/{upload_id}/assemble.
// Joins the chunks into the final document and starts processing. An
// incomplete upload returns the missing chunk set instead of an error.
func (h *UploadHandler) Assemble(w http.ResponseWriter, r *http.Request) {
	result, err := h.uploads.Assemble(r.Context(), chi.URLParam(r, "upload_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
