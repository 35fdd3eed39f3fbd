package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. validator.Validate is
// thread-safe and caches struct metadata, so one instance serves the
// whole process.
var validate = validator.New()

// Validate checks the configuration for structural and semantic errors.
//
// Structural constraints (ranges, enums, required fields) come from the
// `validate` struct tags. Cross-field rules that tags cannot express are
// checked explicitly afterwards.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry endpoint is required when telemetry is enabled")
	}

	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return fmt.Errorf("profiling endpoint is required when profiling is enabled")
	}

	switch cfg.Storage.Backend {
	case "fs":
		if cfg.Storage.FS.Path == "" {
			return fmt.Errorf("storage fs path is required when the fs backend is selected")
		}
	case "s3":
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage s3 bucket is required when the s3 backend is selected")
		}
	}

	if cfg.Jobs.Mode == "remote" && cfg.Jobs.WorkerURL == "" {
		return fmt.Errorf("jobs worker_url is required in remote mode")
	}

	return nil
}
