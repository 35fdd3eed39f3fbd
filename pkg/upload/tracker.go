package upload

import "time"

// Tracker statuses.
const (
	// StatusActive marks an upload still expecting chunks.
	StatusActive = "active"

	// StatusComplete marks an upload whose declared chunks all arrived.
	StatusComplete = "complete"
)

// Tracker is the persisted record of one upload session. It is the
// authority for duplicate detection and received counts; the chunk blobs
// themselves are the authority for assembly.
//
// The chunks map marshals with string keys ("0", "1", ...), which is the
// wire shape clients already rely on.
type Tracker struct {
	UploadID       string       `json:"upload_id"`
	Filename       string       `json:"filename"`
	TotalSize      int64        `json:"total_size"`
	TotalChunks    int          `json:"total_chunks"`
	ChunksReceived int          `json:"chunks_received"`
	Chunks         map[int]bool `json:"chunks"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	UserEmail      string       `json:"user_email,omitempty"`
	Status         string       `json:"status"`
}

// Received reports whether chunk n was already accepted.
func (t *Tracker) Received(n int) bool {
	return t.Chunks[n]
}

// AllReceived reports whether every declared chunk was accepted.
func (t *Tracker) AllReceived() bool {
	return t.ChunksReceived == t.TotalChunks
}

// MissingChunks returns the declared chunk numbers not yet accepted,
// ascending. The slice is non-nil so it marshals as [] when empty.
func (t *Tracker) MissingChunks() []int {
	missing := make([]int, 0)
	for i := 0; i < t.TotalChunks; i++ {
		if !t.Chunks[i] {
			missing = append(missing, i)
		}
	}
	return missing
}
