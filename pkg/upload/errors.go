package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrUploadNotFound is returned when no tracker exists for an upload ID.
	ErrUploadNotFound = errors.New("upload session not found")
)

// ValidationError reports a request that can never succeed as sent, such as
// a disallowed extension or a chunk number outside the declared range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
