package config

import (
	"context"
	"fmt"

	"github.com/lecternhq/lectern/pkg/job"
	"github.com/lecternhq/lectern/pkg/metrics"
	"github.com/lecternhq/lectern/pkg/ocr"
	"github.com/lecternhq/lectern/pkg/render"
	"github.com/lecternhq/lectern/pkg/storage"
	storagefs "github.com/lecternhq/lectern/pkg/storage/fs"
	storages3 "github.com/lecternhq/lectern/pkg/storage/s3"
	"github.com/lecternhq/lectern/pkg/upload"
)

// InitializeMetrics initializes the Prometheus registry and creates the
// metrics server when metrics are enabled.
//
// Must run before any component constructor so the per-component metrics
// factories see an initialized registry. Returns nil when metrics are
// disabled; the caller then skips starting the server.
func InitializeMetrics(cfg *Config) *metrics.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}
	metrics.InitRegistry()
	return metrics.NewServer(cfg.Metrics.Port)
}

// CreateGateway creates the storage gateway from configuration.
//
// The backend is instrumented with Prometheus metrics when the metrics
// registry is initialized and with spans when telemetry is enabled;
// otherwise it runs bare.
func CreateGateway(ctx context.Context, cfg StorageConfig) (*storage.Gateway, error) {
	var (
		store storage.ObjectStore
		err   error
	)

	switch cfg.Backend {
	case "fs", "":
		store, err = createFSStore(cfg.FS)
	case "s3":
		store, err = createS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	store = storage.WithMetrics(store, metrics.NewStorageMetrics(cfg.Backend))
	store = storage.WithTracing(store)

	return storage.NewGateway(store), nil
}

// createFSStore creates the filesystem-backed object store.
func createFSStore(cfg StorageFSConfig) (storage.ObjectStore, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultStoragePath
	}

	store, err := storagefs.NewWithPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem store at %s: %w", path, err)
	}
	return store, nil
}

// createS3Store creates the S3-backed object store.
func createS3Store(ctx context.Context, cfg StorageS3Config) (storage.ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 storage backend requires bucket to be set")
	}

	store, err := storages3.NewFromConfig(ctx, storages3.Config{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		KeyPrefix:       cfg.KeyPrefix,
		ForcePathStyle:  cfg.ForcePathStyle,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 store: %w", err)
	}
	return store, nil
}

// ManagerConfig converts the jobs section into the job manager's config.
func (c JobsConfig) ManagerConfig() job.Config {
	return job.Config{
		Mode:              c.Mode,
		Workers:           c.Workers,
		WorkerURL:         c.WorkerURL,
		DispatchTimeout:   c.DispatchTimeout,
		ContinuationDelay: c.ContinuationDelay,
		DispatchRetries:   c.DispatchRetries,
	}
}

// ClientConfig converts the ocr section into the inference client's config.
func (c OCRConfig) ClientConfig() ocr.ClientConfig {
	return ocr.ClientConfig{
		Endpoint:     c.Endpoint,
		Model:        c.Model,
		Device:       c.Device,
		MaxNewTokens: c.MaxNewTokens,
	}
}

// EagerLoadEnabled resolves the eager-load setting for the given job mode.
//
// When unset, local mode loads eagerly so the model warms up while the
// first upload is still in flight; remote mode loads lazily because the
// dispatch process never runs inference itself.
func (c OCRConfig) EagerLoadEnabled(mode string) bool {
	if c.EagerLoad != nil {
		return *c.EagerLoad
	}
	return mode == job.ModeLocal
}

// AssemblerConfig converts the upload section into the assembler's config.
func (c UploadConfig) AssemblerConfig() upload.Config {
	return upload.Config{
		MaxFileSize:       c.MaxFileSize.Int64(),
		AllowedExtensions: c.AllowedExtensions,
		ChunkWriteTimeout: c.ChunkWriteTimeout,
	}
}

// RenderConfig converts the extract section into the renderer's config.
func (c ExtractConfig) RenderConfig() render.Config {
	return render.Config{
		DPI:           c.DPI,
		RenderThreads: c.RenderThreads,
	}
}

// ProcessorConfig builds the job processor's batch sizes from the extract
// and ocr sections.
func (cfg *Config) ProcessorConfig() job.ProcessorConfig {
	return job.ProcessorConfig{
		ExtractBatch: cfg.Extract.BatchSize,
		OCRBatch:     cfg.OCR.BatchSize,
	}
}
