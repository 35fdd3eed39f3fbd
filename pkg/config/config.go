package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/lecternhq/lectern/internal/bytesize"
	"github.com/lecternhq/lectern/pkg/api"
	"github.com/lecternhq/lectern/pkg/job"
	"github.com/lecternhq/lectern/pkg/ocr"
	"github.com/lecternhq/lectern/pkg/render"
	"github.com/lecternhq/lectern/pkg/upload"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the Lectern configuration.
//
// This structure captures the static configuration of the OCR pipeline:
//   - Logging configuration
//   - Telemetry/tracing configuration
//   - Server settings (shutdown timeout, metrics, API)
//   - Storage backend (filesystem or S3)
//   - Job execution mode (in-process pool or external queue)
//   - OCR model and extraction tuning
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (LECTERN_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API contains HTTP API server configuration
	API api.APIConfig `mapstructure:"api" yaml:"api"`

	// Storage selects and configures the object storage backend.
	// All session artifacts (originals, page images, OCR text, status
	// documents) live in this backend.
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Jobs controls how pipeline jobs execute: an in-process worker pool
	// (local) or dispatch to an external HTTP task queue (remote).
	Jobs JobsConfig `mapstructure:"jobs" yaml:"jobs"`

	// OCR configures the model identity and the inference server.
	OCR OCRConfig `mapstructure:"ocr" yaml:"ocr"`

	// Upload bounds the chunked upload protocol.
	Upload UploadConfig `mapstructure:"upload" yaml:"upload"`

	// Extract tunes PDF page extraction.
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector
// (e.g., Jaeger, Tempo, or any OTLP receiver).
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	// Default: true (for local development)
	// Set to false in production with a TLS-enabled collector
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// 1.0 = sample all traces, 0.5 = sample 50%, 0.0 = no sampling
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
// When enabled, CPU and memory profiles are continuously sent to a Pyroscope server
// for flame graph visualization and performance analysis.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false (opt-in for profiling)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040" (standard Pyroscope port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Valid values: cpu, alloc_objects, alloc_space, inuse_objects, inuse_space,
	//               goroutines, mutex_count, mutex_duration, block_count, block_duration
	// Default: ["cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"]
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// StorageConfig selects the object storage backend.
//
// The filesystem backend keeps everything under a local directory and is
// the default for single-node deployments. The S3 backend stores objects
// in a bucket and is selected automatically when RUNNING_IN_CLOUD=true.
type StorageConfig struct {
	// Backend selects the storage implementation.
	// Valid values: fs, s3
	// Default: "fs"
	Backend string `mapstructure:"backend" validate:"required,oneof=fs s3" yaml:"backend"`

	// FS configures the filesystem backend
	FS StorageFSConfig `mapstructure:"fs" yaml:"fs"`

	// S3 configures the S3 backend
	S3 StorageS3Config `mapstructure:"s3" yaml:"s3"`
}

// StorageFSConfig configures the filesystem storage backend.
type StorageFSConfig struct {
	// Path is the root directory for session storage
	// Default: /tmp/lectern-sessions
	Path string `mapstructure:"path" yaml:"path"`
}

// StorageS3Config configures the S3 storage backend.
type StorageS3Config struct {
	// Bucket is the S3 bucket name (required when backend is s3)
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// Region is the AWS region (optional, SDK default chain applies)
	Region string `mapstructure:"region" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint URL (for Localstack/MinIO)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`

	// KeyPrefix is prepended to every object key
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`

	// ForcePathStyle forces path-style addressing (required for Localstack/MinIO)
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`

	// AccessKeyID and SecretAccessKey select static credentials when both
	// are set; otherwise the SDK default chain applies. Prefer the
	// LECTERN_STORAGE_S3_SECRET_ACCESS_KEY environment variable over
	// writing the secret into the config file.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
}

// JobsConfig controls pipeline job execution.
type JobsConfig struct {
	// Mode selects job execution.
	// Valid values: local (in-process worker pool), remote (external HTTP queue)
	// Default: "local"; RUNNING_IN_CLOUD=true switches to "remote"
	Mode string `mapstructure:"mode" validate:"required,oneof=local remote" yaml:"mode"`

	// Workers is the local pool size
	// Default: max(2, NumCPU/2)
	Workers int `mapstructure:"workers" validate:"omitempty,min=1" yaml:"workers,omitempty"`

	// WorkerURL is the base URL the external queue delivers jobs to
	// (remote mode only). The dispatch POST goes to
	// {worker_url}/worker/process-job.
	WorkerURL string `mapstructure:"worker_url" yaml:"worker_url,omitempty"`

	// DispatchTimeout bounds one remote dispatch attempt
	// Default: 600s (the queue holds the connection while the job runs)
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout" yaml:"dispatch_timeout"`

	// ContinuationDelay postpones dispatch of continuation batches to
	// smooth bursts (remote mode only)
	// Default: 5s
	ContinuationDelay time.Duration `mapstructure:"continuation_delay" yaml:"continuation_delay"`

	// DispatchRetries bounds redelivery attempts after a transport error
	// or a 5xx from the remote queue
	// Default: 3
	DispatchRetries int `mapstructure:"dispatch_retries" validate:"omitempty,min=0" yaml:"dispatch_retries"`
}

// OCRConfig configures the OCR model and inference server.
type OCRConfig struct {
	// Model is the served model identifier
	// Default: "nanonets/Nanonets-OCR-s"
	Model string `mapstructure:"model" yaml:"model"`

	// Endpoint is the OpenAI-compatible inference server base URL
	// Default: "http://localhost:8000"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Device is the device label reported in health probes.
	// Placement is owned by the inference server; this only surfaces
	// what the deployment claims.
	// Default: "cuda"
	Device string `mapstructure:"device" yaml:"device"`

	// EagerLoad starts loading the model in the background at startup.
	// Default: true in local mode, false in remote mode
	EagerLoad *bool `mapstructure:"eager_load" yaml:"eager_load,omitempty"`

	// LoadTimeout bounds how long a batch waits for the model to load
	// Default: 300s
	LoadTimeout time.Duration `mapstructure:"load_timeout" yaml:"load_timeout"`

	// MaxNewTokens bounds generation length per page image
	// Default: 15000
	MaxNewTokens int `mapstructure:"max_new_tokens" validate:"omitempty,min=1" yaml:"max_new_tokens"`

	// BatchSize is the number of pages OCRed per job before the session
	// status is rebuilt and a continuation job is created
	// Default: 5
	BatchSize int `mapstructure:"batch_size" validate:"omitempty,min=1" yaml:"batch_size"`
}

// UploadConfig bounds the chunked upload protocol.
type UploadConfig struct {
	// MaxFileSize caps the declared total size of an upload
	// Supports human-readable formats: "500MB", "1Gi"
	// Default: 500MiB
	MaxFileSize bytesize.ByteSize `mapstructure:"max_file_size" yaml:"max_file_size,omitempty"`

	// AllowedExtensions lists acceptable file extensions, without the dot
	// Default: [pdf, png, jpg, jpeg, webp, tiff]
	AllowedExtensions []string `mapstructure:"allowed_extensions" yaml:"allowed_extensions,omitempty"`

	// ChunkWriteTimeout bounds a single chunk blob write
	// Default: 30s
	ChunkWriteTimeout time.Duration `mapstructure:"chunk_write_timeout" yaml:"chunk_write_timeout"`
}

// ExtractConfig tunes PDF page extraction.
type ExtractConfig struct {
	// DPI is the PDF rasterization density
	// Default: 150
	DPI int `mapstructure:"dpi" validate:"omitempty,min=1" yaml:"dpi"`

	// BatchSize is the number of pages rendered per extraction job
	// Default: 10
	BatchSize int `mapstructure:"batch_size" validate:"omitempty,min=1" yaml:"batch_size"`

	// RenderThreads is the number of concurrent page renders per batch
	// Default: 2
	RenderThreads int `mapstructure:"render_threads" validate:"omitempty,min=1" yaml:"render_threads"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (LECTERN_*)
//  2. Configuration file
//  3. Default values
//
// The bare RUNNING_IN_CLOUD environment variable is honored for parity
// with cloud deployment manifests: when truthy it forces storage.backend
// to "s3" and jobs.mode to "remote".
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Register defaults for every key. Viper only resolves environment
	// variables for keys it knows about, and cloud deployments configure
	// everything through the environment with no config file at all.
	setViperDefaults(v)

	// Read the configuration file if it exists. A missing file is fine:
	// defaults and environment variables carry the whole configuration.
	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal into config struct with custom decode hooks
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	applyCloudOverrides(v, &cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// applyCloudOverrides forces cloud-appropriate settings when
// RUNNING_IN_CLOUD is truthy. Cloud deployments have no durable local
// disk and no long-lived process to host a worker pool, so storage goes
// to S3 and jobs to the external queue regardless of what the file says.
func applyCloudOverrides(v *viper.Viper, cfg *Config) {
	if !v.GetBool("running_in_cloud") {
		return
	}
	cfg.Storage.Backend = "s3"
	cfg.Jobs.Mode = job.ModeRemote
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: User-friendly error with instructions if config not found
func MustLoad(configPath string) (*Config, error) {
	// Determine config path
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  lectern init\n\n"+
				"Or specify a custom config file:\n"+
				"  lectern <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  lectern init --config %s",
				configPath, configPath)
		}
	}

	// Load configuration
	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path.
// The configuration is saved in YAML format using proper yaml tags.
func SaveConfig(cfg *Config, path string) error {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Use yaml.Marshal directly to respect yaml tags
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file with restricted permissions (0600 = owner read/write only).
	// Config files may carry bucket names and internal endpoints.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Set up environment variable support
	// Environment variables use LECTERN_ prefix and underscores
	// Example: LECTERN_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("LECTERN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// RUNNING_IN_CLOUD is set by the deployment manifests without the
	// LECTERN_ prefix, so it needs an explicit binding.
	_ = v.BindEnv("running_in_cloud", "RUNNING_IN_CLOUD")

	// eager_load has no default (its fallback depends on the job mode),
	// so the key must be bound explicitly for LECTERN_OCR_EAGER_LOAD to
	// resolve.
	_ = v.BindEnv("ocr.eager_load")

	// Configure config file search
	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/lectern/config.{yaml,toml}
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml") // Primary format
	}
}

// setViperDefaults registers the default value of every configuration key.
//
// Registration matters beyond defaulting: viper's AutomaticEnv only
// consults the environment for keys it already knows, so an unregistered
// key could never be set through LECTERN_* variables when no config file
// is present.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_rate", 1.0)
	v.SetDefault("telemetry.profiling.enabled", false)
	v.SetDefault("telemetry.profiling.endpoint", "http://localhost:4040")

	v.SetDefault("shutdown_timeout", 30*time.Second)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("api.enabled", true)
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_header_timeout", 10*time.Second)
	v.SetDefault("api.read_timeout", 10*time.Minute)
	v.SetDefault("api.write_timeout", 20*time.Minute)
	v.SetDefault("api.idle_timeout", 60*time.Second)

	v.SetDefault("storage.backend", "fs")
	v.SetDefault("storage.fs.path", DefaultStoragePath)
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.key_prefix", "")
	v.SetDefault("storage.s3.force_path_style", false)

	v.SetDefault("jobs.mode", job.ModeLocal)
	v.SetDefault("jobs.workers", 0)
	v.SetDefault("jobs.worker_url", "")
	v.SetDefault("jobs.dispatch_timeout", job.DefaultDispatchTimeout)
	v.SetDefault("jobs.continuation_delay", job.DefaultContinuationDelay)
	v.SetDefault("jobs.dispatch_retries", job.DefaultDispatchRetries)

	v.SetDefault("ocr.model", DefaultOCRModel)
	v.SetDefault("ocr.endpoint", DefaultOCREndpoint)
	v.SetDefault("ocr.device", DefaultOCRDevice)
	v.SetDefault("ocr.load_timeout", ocr.DefaultLoadTimeout)
	v.SetDefault("ocr.max_new_tokens", ocr.DefaultMaxNewTokens)
	v.SetDefault("ocr.batch_size", job.DefaultOCRBatch)

	v.SetDefault("upload.max_file_size", uint64(upload.DefaultMaxFileSize))
	v.SetDefault("upload.allowed_extensions", upload.DefaultAllowedExtensions)
	v.SetDefault("upload.chunk_write_timeout", upload.DefaultChunkWriteTimeout)

	v.SetDefault("extract.dpi", render.DefaultDPI)
	v.SetDefault("extract.batch_size", job.DefaultExtractBatch)
	v.SetDefault("extract.render_threads", render.DefaultRenderThreads)
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		// Check if error is "config file not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return false, nil
		}
		// Also check for os.PathError when explicit config file doesn't exist
		if os.IsNotExist(err) {
			// Config file not found is acceptable - use defaults
			return false, nil
		}
		// Other errors are problems
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
// This includes ByteSize and time.Duration parsing, plus comma-splitting
// for list values supplied through single environment variables
// (LECTERN_UPLOAD_ALLOWED_EXTENSIONS="pdf,png").
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// byteSizeDecodeHook returns a mapstructure decode hook that converts strings
// and integers to bytesize.ByteSize. This enables config files to use human-readable
// sizes like "1Gi", "500Mi", "100MB", or plain numbers.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		// Only handle conversion to ByteSize
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			// Parse human-readable string like "1Gi", "500Mi", "100MB"
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		// Only handle conversion to time.Duration
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			// Parse duration string like "30s", "5m", "1h"
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	// Check XDG_CONFIG_HOME
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "lectern")
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, use current directory as last resort
		return "."
	}

	return filepath.Join(home, ".config", "lectern")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
