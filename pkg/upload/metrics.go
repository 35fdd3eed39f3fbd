package upload

// Metrics records upload activity. Implementations live in
// pkg/metrics/prometheus; a nil Metrics disables recording.
type Metrics interface {
	// UploadStarted records a new upload session.
	UploadStarted()

	// ChunkReceived records an accepted chunk of the given size.
	// Duplicate chunks are not recorded.
	ChunkReceived(bytes int64)

	// UploadAssembled records an upload session reaching assembly.
	UploadAssembled()
}
