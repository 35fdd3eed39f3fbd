package config

import (
	"strings"
	"time"

	"github.com/lecternhq/lectern/internal/bytesize"
	"github.com/lecternhq/lectern/pkg/job"
	"github.com/lecternhq/lectern/pkg/ocr"
	"github.com/lecternhq/lectern/pkg/render"
	"github.com/lecternhq/lectern/pkg/upload"
)

const (
	// DefaultStoragePath is where the filesystem backend keeps sessions
	// when no path is configured.
	DefaultStoragePath = "/tmp/lectern-sessions"

	// DefaultOCRModel is the served model identifier.
	DefaultOCRModel = "nanonets/Nanonets-OCR-s"

	// DefaultOCREndpoint is the inference server base URL.
	DefaultOCREndpoint = "http://localhost:8000"

	// DefaultOCRDevice is the device label reported in health probes.
	DefaultOCRDevice = "cuda"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyMetricsDefaults(&cfg.Metrics)
	cfg.API.ApplyDefaults()
	applyStorageDefaults(&cfg.Storage)
	applyJobsDefaults(&cfg.Jobs)
	applyOCRDefaults(&cfg.OCR)
	applyUploadDefaults(&cfg.Upload)
	applyExtractDefaults(&cfg.Extract)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry)
	// No need to set, zero value is false

	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Default sample rate is 1.0 (sample all traces)
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	// Apply profiling defaults
	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	// Enabled defaults to false (opt-in for profiling)
	// No need to set, zero value is false

	// Default endpoint is localhost:4040 (standard Pyroscope port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	// Default profile types include CPU, memory allocation, and goroutines
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	// Port defaults to 9090 if metrics are enabled
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyStorageDefaults sets storage backend defaults.
func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "fs"
	}
	if cfg.FS.Path == "" {
		cfg.FS.Path = DefaultStoragePath
	}
	// S3 has no defaults: the bucket must be configured explicitly and
	// region/endpoint fall through to the AWS SDK's own resolution.
}

// applyJobsDefaults sets job execution defaults.
func applyJobsDefaults(cfg *JobsConfig) {
	if cfg.Mode == "" {
		cfg.Mode = job.ModeLocal
	}
	// Workers stays 0 when unset: the manager sizes the pool from NumCPU.
	if cfg.DispatchTimeout == 0 {
		cfg.DispatchTimeout = job.DefaultDispatchTimeout
	}
	if cfg.ContinuationDelay == 0 {
		cfg.ContinuationDelay = job.DefaultContinuationDelay
	}
	if cfg.DispatchRetries == 0 {
		cfg.DispatchRetries = job.DefaultDispatchRetries
	}
}

// applyOCRDefaults sets OCR model defaults.
func applyOCRDefaults(cfg *OCRConfig) {
	if cfg.Model == "" {
		cfg.Model = DefaultOCRModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultOCREndpoint
	}
	if cfg.Device == "" {
		cfg.Device = DefaultOCRDevice
	}
	// EagerLoad stays nil when unset: the fallback depends on the job
	// mode and is resolved at wiring time.
	if cfg.LoadTimeout == 0 {
		cfg.LoadTimeout = ocr.DefaultLoadTimeout
	}
	if cfg.MaxNewTokens == 0 {
		cfg.MaxNewTokens = ocr.DefaultMaxNewTokens
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = job.DefaultOCRBatch
	}
}

// applyUploadDefaults sets upload protocol defaults.
func applyUploadDefaults(cfg *UploadConfig) {
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = bytesize.ByteSize(upload.DefaultMaxFileSize)
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = append([]string(nil), upload.DefaultAllowedExtensions...)
	}
	if cfg.ChunkWriteTimeout == 0 {
		cfg.ChunkWriteTimeout = upload.DefaultChunkWriteTimeout
	}
}

// applyExtractDefaults sets page extraction defaults.
func applyExtractDefaults(cfg *ExtractConfig) {
	if cfg.DPI == 0 {
		cfg.DPI = render.DefaultDPI
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = job.DefaultExtractBatch
	}
	if cfg.RenderThreads == 0 {
		cfg.RenderThreads = render.DefaultRenderThreads
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
