package storage

import "errors"

var (
	// ErrNotFound is returned when an object does not exist in the store.
	ErrNotFound = errors.New("object not found")

	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrTimeout is returned when a bounded storage operation exceeds its deadline.
	ErrTimeout = errors.New("storage operation timed out")
)
