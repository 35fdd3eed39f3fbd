// Package session owns the per-session documents: metadata.json carrying
// the user binding and the append-only job log, and status.json, the
// progress document derived from the files actually present in storage.
//
// status.json is never authoritative. Any component may delete it and any
// reader may find it stale; Rebuild reconstructs it from the page and
// result files at any time.
package session

import "time"

// StatusCreated is the informational status written at session creation.
// Progress truth lives in the derived status document, not here.
const StatusCreated = "created"

// JobRef is one job recorded in the session's append-only job log.
type JobRef struct {
	JobID     string    `json:"job_id"`
	JobType   string    `json:"job_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Metadata is the session record stored at metadata.json.
type Metadata struct {
	SessionID string    `json:"session_id"`
	UserEmail string    `json:"user_email,omitempty"`
	UserHash  string    `json:"user_hash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status,omitempty"`
	Jobs      []JobRef  `json:"jobs"`
}
