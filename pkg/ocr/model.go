// Package ocr owns the vision-language model: the inference client that
// talks to an OpenAI-compatible server and the worker that serializes
// batches, waits out model loading and reports readiness.
package ocr

import "context"

// Model is one loadable inference backend.
//
// Load is idempotent: concurrent callers block until the first attempt
// settles, and calling it on a loaded model returns immediately.
type Model interface {
	// Load makes the model ready for inference.
	Load(ctx context.Context) error

	// Loaded reports whether the model can serve Generate calls now.
	Loaded() bool

	// Generate runs inference on one PNG page image and returns the
	// extracted text, whitespace-stripped.
	Generate(ctx context.Context, png []byte) (string, error)

	// ID returns the model identifier.
	ID() string

	// Device returns the device label the model runs on.
	Device() string
}

// Health describes the worker's model state for readiness probes.
type Health struct {
	ModelLoaded bool   `json:"model_loaded"`
	Device      string `json:"device"`
	Model       string `json:"model"`
}
