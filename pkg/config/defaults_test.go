package config

import (
	"testing"
	"time"

	"github.com/lecternhq/lectern/internal/bytesize"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_ShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_API(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
	if cfg.API.ReadHeaderTimeout != 10*time.Second {
		t.Errorf("Expected default read header timeout 10s, got %v", cfg.API.ReadHeaderTimeout)
	}
	if cfg.API.ReadTimeout != 10*time.Minute {
		t.Errorf("Expected default read timeout 10m, got %v", cfg.API.ReadTimeout)
	}
	if cfg.API.WriteTimeout != 20*time.Minute {
		t.Errorf("Expected default write timeout 20m, got %v", cfg.API.WriteTimeout)
	}
	if cfg.API.IdleTimeout != 60*time.Second {
		t.Errorf("Expected default idle timeout 60s, got %v", cfg.API.IdleTimeout)
	}
}

func TestApplyDefaults_Storage(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Storage.Backend != "fs" {
		t.Errorf("Expected default backend 'fs', got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.FS.Path != DefaultStoragePath {
		t.Errorf("Expected default path %q, got %q", DefaultStoragePath, cfg.Storage.FS.Path)
	}
	if cfg.Storage.S3.Bucket != "" {
		t.Errorf("Expected no default bucket, got %q", cfg.Storage.S3.Bucket)
	}
}

func TestApplyDefaults_Jobs(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Jobs.Mode != "local" {
		t.Errorf("Expected default mode 'local', got %q", cfg.Jobs.Mode)
	}
	if cfg.Jobs.Workers != 0 {
		t.Errorf("Expected workers to stay 0 (auto), got %d", cfg.Jobs.Workers)
	}
	if cfg.Jobs.DispatchTimeout != 600*time.Second {
		t.Errorf("Expected default dispatch timeout 600s, got %v", cfg.Jobs.DispatchTimeout)
	}
	if cfg.Jobs.ContinuationDelay != 5*time.Second {
		t.Errorf("Expected default continuation delay 5s, got %v", cfg.Jobs.ContinuationDelay)
	}
	if cfg.Jobs.DispatchRetries != 3 {
		t.Errorf("Expected default dispatch retries 3, got %d", cfg.Jobs.DispatchRetries)
	}
}

func TestApplyDefaults_OCR(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.OCR.Model != DefaultOCRModel {
		t.Errorf("Expected default model %q, got %q", DefaultOCRModel, cfg.OCR.Model)
	}
	if cfg.OCR.Endpoint != DefaultOCREndpoint {
		t.Errorf("Expected default endpoint %q, got %q", DefaultOCREndpoint, cfg.OCR.Endpoint)
	}
	if cfg.OCR.Device != DefaultOCRDevice {
		t.Errorf("Expected default device %q, got %q", DefaultOCRDevice, cfg.OCR.Device)
	}
	if cfg.OCR.EagerLoad != nil {
		t.Error("Expected eager_load to stay unset, the fallback depends on job mode")
	}
	if cfg.OCR.LoadTimeout != 300*time.Second {
		t.Errorf("Expected default load timeout 300s, got %v", cfg.OCR.LoadTimeout)
	}
	if cfg.OCR.MaxNewTokens != 15000 {
		t.Errorf("Expected default max new tokens 15000, got %d", cfg.OCR.MaxNewTokens)
	}
	if cfg.OCR.BatchSize != 5 {
		t.Errorf("Expected default OCR batch size 5, got %d", cfg.OCR.BatchSize)
	}
}

func TestApplyDefaults_Upload(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Upload.MaxFileSize != 500*bytesize.MiB {
		t.Errorf("Expected default max file size 500Mi, got %v", cfg.Upload.MaxFileSize)
	}
	want := []string{"pdf", "png", "jpg", "jpeg", "webp", "tiff"}
	if len(cfg.Upload.AllowedExtensions) != len(want) {
		t.Fatalf("Expected %d default extensions, got %v", len(want), cfg.Upload.AllowedExtensions)
	}
	for i, ext := range want {
		if cfg.Upload.AllowedExtensions[i] != ext {
			t.Errorf("Expected extension %q at %d, got %q", ext, i, cfg.Upload.AllowedExtensions[i])
		}
	}
	if cfg.Upload.ChunkWriteTimeout != 30*time.Second {
		t.Errorf("Expected default chunk write timeout 30s, got %v", cfg.Upload.ChunkWriteTimeout)
	}
}

func TestApplyDefaults_Extract(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Extract.DPI != 150 {
		t.Errorf("Expected default DPI 150, got %d", cfg.Extract.DPI)
	}
	if cfg.Extract.BatchSize != 10 {
		t.Errorf("Expected default extract batch size 10, got %d", cfg.Extract.BatchSize)
	}
	if cfg.Extract.RenderThreads != 2 {
		t.Errorf("Expected default render threads 2, got %d", cfg.Extract.RenderThreads)
	}
}

func TestApplyDefaults_MetricsPortOnlyWhenEnabled(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 0 {
		t.Errorf("Expected no metrics port while disabled, got %d", cfg.Metrics.Port)
	}

	cfg = &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "DEBUG",
			Format: "json",
			Output: "/var/log/lectern.log",
		},
		ShutdownTimeout: 60 * time.Second,
		Storage: StorageConfig{
			Backend: "s3",
			S3:      StorageS3Config{Bucket: "my-bucket"},
		},
		Jobs: JobsConfig{
			Mode:    "remote",
			Workers: 8,
		},
	}

	ApplyDefaults(cfg)

	// Verify explicit values were preserved
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected explicit level 'DEBUG' to be preserved, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected explicit format 'json' to be preserved, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "/var/log/lectern.log" {
		t.Errorf("Expected explicit output to be preserved, got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 60*time.Second {
		t.Errorf("Expected explicit timeout 60s to be preserved, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Storage.Backend != "s3" {
		t.Errorf("Expected explicit backend 's3' to be preserved, got %q", cfg.Storage.Backend)
	}
	if cfg.Jobs.Workers != 8 {
		t.Errorf("Expected explicit workers 8 to be preserved, got %d", cfg.Jobs.Workers)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	// The default config should pass validation
	err := Validate(cfg)
	if err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}

func TestGetDefaultConfig_HasRequiredFields(t *testing.T) {
	cfg := GetDefaultConfig()

	// Check all required sections are present
	if cfg.Logging.Level == "" {
		t.Error("Default config missing logging level")
	}
	if cfg.API.Port == 0 {
		t.Error("Default config missing API port")
	}
	if cfg.Storage.Backend == "" {
		t.Error("Default config missing storage backend")
	}
	if cfg.Storage.FS.Path == "" {
		t.Error("Default config missing storage path")
	}
	if cfg.OCR.Model == "" {
		t.Error("Default config missing OCR model")
	}
}
