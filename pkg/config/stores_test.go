package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lecternhq/lectern/internal/bytesize"
	"github.com/lecternhq/lectern/pkg/job"
)

func TestCreateGateway_Filesystem(t *testing.T) {
	tmpDir := t.TempDir()

	gw, err := CreateGateway(context.Background(), StorageConfig{
		Backend: "fs",
		FS:      StorageFSConfig{Path: filepath.Join(tmpDir, "sessions")},
	})
	if err != nil {
		t.Fatalf("CreateGateway failed: %v", err)
	}
	defer func() { _ = gw.Close() }()

	if err := gw.HealthCheck(context.Background()); err != nil {
		t.Errorf("Expected healthy filesystem gateway, got: %v", err)
	}
}

func TestCreateGateway_UnknownBackend(t *testing.T) {
	_, err := CreateGateway(context.Background(), StorageConfig{Backend: "tape"})
	if err == nil {
		t.Fatal("Expected error for unknown backend")
	}
}

func TestCreateGateway_S3RequiresBucket(t *testing.T) {
	_, err := CreateGateway(context.Background(), StorageConfig{Backend: "s3"})
	if err == nil {
		t.Fatal("Expected error for s3 backend without bucket")
	}
}

func TestJobsConfig_ManagerConfig(t *testing.T) {
	jc := JobsConfig{
		Mode:              "remote",
		Workers:           4,
		WorkerURL:         "https://lectern.example.com",
		DispatchTimeout:   2 * time.Minute,
		ContinuationDelay: time.Second,
		DispatchRetries:   5,
	}

	mc := jc.ManagerConfig()

	if mc.Mode != "remote" || mc.Workers != 4 || mc.WorkerURL != "https://lectern.example.com" {
		t.Errorf("Manager config mismatch: %+v", mc)
	}
	if mc.DispatchTimeout != 2*time.Minute || mc.ContinuationDelay != time.Second || mc.DispatchRetries != 5 {
		t.Errorf("Manager timing mismatch: %+v", mc)
	}
}

func TestOCRConfig_ClientConfig(t *testing.T) {
	oc := OCRConfig{
		Model:        "custom/model",
		Endpoint:     "http://vllm:8000",
		Device:       "cpu",
		MaxNewTokens: 1234,
	}

	cc := oc.ClientConfig()

	if cc.Model != "custom/model" || cc.Endpoint != "http://vllm:8000" {
		t.Errorf("Client config mismatch: %+v", cc)
	}
	if cc.Device != "cpu" || cc.MaxNewTokens != 1234 {
		t.Errorf("Client tuning mismatch: %+v", cc)
	}
}

func TestOCRConfig_EagerLoadEnabled(t *testing.T) {
	// Unset: local mode warms up eagerly, remote loads lazily.
	var oc OCRConfig
	if !oc.EagerLoadEnabled(job.ModeLocal) {
		t.Error("Expected eager load in local mode by default")
	}
	if oc.EagerLoadEnabled(job.ModeRemote) {
		t.Error("Expected lazy load in remote mode by default")
	}

	// Explicit setting wins over the mode fallback.
	f := false
	oc.EagerLoad = &f
	if oc.EagerLoadEnabled(job.ModeLocal) {
		t.Error("Expected explicit false to disable eager load")
	}

	tr := true
	oc.EagerLoad = &tr
	if !oc.EagerLoadEnabled(job.ModeRemote) {
		t.Error("Expected explicit true to enable eager load")
	}
}

func TestUploadConfig_AssemblerConfig(t *testing.T) {
	uc := UploadConfig{
		MaxFileSize:       100 * bytesize.MiB,
		AllowedExtensions: []string{"pdf"},
		ChunkWriteTimeout: 10 * time.Second,
	}

	ac := uc.AssemblerConfig()

	if ac.MaxFileSize != int64(100*bytesize.MiB) {
		t.Errorf("Expected max file size %d, got %d", int64(100*bytesize.MiB), ac.MaxFileSize)
	}
	if len(ac.AllowedExtensions) != 1 || ac.AllowedExtensions[0] != "pdf" {
		t.Errorf("Expected [pdf], got %v", ac.AllowedExtensions)
	}
	if ac.ChunkWriteTimeout != 10*time.Second {
		t.Errorf("Expected chunk write timeout 10s, got %v", ac.ChunkWriteTimeout)
	}
}

func TestProcessorConfig_FromSections(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Extract.BatchSize = 20
	cfg.OCR.BatchSize = 3

	pc := cfg.ProcessorConfig()

	if pc.ExtractBatch != 20 {
		t.Errorf("Expected extract batch 20, got %d", pc.ExtractBatch)
	}
	if pc.OCRBatch != 3 {
		t.Errorf("Expected OCR batch 3, got %d", pc.OCRBatch)
	}
}

func TestExtractConfig_RenderConfig(t *testing.T) {
	ec := ExtractConfig{DPI: 300, RenderThreads: 4}

	rc := ec.RenderConfig()

	if rc.DPI != 300 || rc.RenderThreads != 4 {
		t.Errorf("Render config mismatch: %+v", rc)
	}
}
