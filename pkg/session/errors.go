package session

import "errors"

var (
	// ErrSessionNotFound is returned when a session has no metadata.json.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStatusNotFound is returned when a session has no status.json yet.
	// Callers can Rebuild to create one.
	ErrStatusNotFound = errors.New("session status not found")
)
