package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// InitConfig creates a sample configuration file at the default location.
//
// Returns the path of the created file. Fails if the file already exists
// unless force is true.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()
	if err := InitConfigToPath(configPath, force); err != nil {
		return "", err
	}
	return configPath, nil
}

// InitConfigToPath creates a sample configuration file at the given path,
// creating parent directories as needed. Fails if the file already exists
// unless force is true.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// sampleConfig is the commented configuration template written by
// 'lectern init'. Every value shown is the default, so the file is a
// no-op until edited.
const sampleConfig = `# Lectern Configuration File
#
# Configuration precedence: environment variables (LECTERN_*) override
# this file, which overrides built-in defaults.
# Example: LECTERN_LOGGING_LEVEL=DEBUG
#
# RUNNING_IN_CLOUD=true (no prefix) forces storage.backend=s3 and
# jobs.mode=remote regardless of this file.

logging:
  # Minimum level to output: DEBUG, INFO, WARN, ERROR
  level: "INFO"
  # Output format: text, json
  format: "text"
  # Destination: stdout, stderr, or a file path
  output: "stdout"

# Maximum time to wait for graceful shutdown
shutdown_timeout: 30s

api:
  enabled: true
  port: 8080
  # Generous body timeouts: chunk uploads and inline worker jobs are slow
  read_timeout: 10m
  write_timeout: 20m
  idle_timeout: 60s

storage:
  # Object storage backend: fs (local directory) or s3
  backend: "fs"
  fs:
    path: "/tmp/lectern-sessions"
  # s3:
  #   bucket: "my-lectern-bucket"
  #   region: "us-east-1"
  #   # endpoint + force_path_style for Localstack/MinIO
  #   endpoint: "http://localhost:4566"
  #   force_path_style: true

jobs:
  # Job execution: local (in-process worker pool) or remote (external
  # HTTP task queue posting back to /worker/process-job)
  mode: "local"
  # workers: 4
  # worker_url: "https://lectern.example.com"
  dispatch_timeout: 600s
  continuation_delay: 5s
  dispatch_retries: 3

ocr:
  model: "nanonets/Nanonets-OCR-s"
  # OpenAI-compatible inference server
  endpoint: "http://localhost:8000"
  device: "cuda"
  load_timeout: 300s
  max_new_tokens: 15000
  # Pages OCRed per job before a continuation job picks up the rest
  batch_size: 5

upload:
  max_file_size: "500Mi"
  allowed_extensions: [pdf, png, jpg, jpeg, webp, tiff]
  chunk_write_timeout: 30s

extract:
  # PDF rasterization density
  dpi: 150
  # Pages rendered per extraction job
  batch_size: 10
  render_threads: 2

metrics:
  enabled: false
  port: 9090

telemetry:
  enabled: false
  endpoint: "localhost:4317"
  insecure: true
  sample_rate: 1.0
  profiling:
    enabled: false
    endpoint: "http://localhost:4040"
`
