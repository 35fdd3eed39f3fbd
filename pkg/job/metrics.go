package job

import "time"

// Metrics records job lifecycle observations. Implementations live in
// pkg/metrics/prometheus; a nil Metrics disables recording.
type Metrics interface {
	// JobCreated records a job accepted for dispatch.
	JobCreated(jobType string)

	// JobCompleted records a job finishing successfully after d.
	JobCompleted(jobType string, d time.Duration)

	// JobFailed records a job ending in failure after d.
	JobFailed(jobType string, d time.Duration)
}
