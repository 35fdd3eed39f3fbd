//go:build integration

package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lecternhq/lectern/pkg/storage"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// localstackHelper manages the Localstack container for S3 integration tests.
type localstackHelper struct {
	container testcontainers.Container
	endpoint  string
	client    *s3.Client
}

// newLocalstackHelper starts a Localstack container or connects to an existing one.
func newLocalstackHelper(t *testing.T) *localstackHelper {
	t.Helper()
	ctx := context.Background()

	// Check if external Localstack is configured via environment
	if endpoint := os.Getenv("LOCALSTACK_ENDPOINT"); endpoint != "" {
		helper := &localstackHelper{endpoint: endpoint}
		helper.createClient(t)
		return helper
	}

	req := testcontainers.ContainerRequest{
		Image:        "localstack/localstack:3.0",
		ExposedPorts: []string{"4566/tcp"},
		Env: map[string]string{
			"SERVICES":              "s3",
			"DEFAULT_REGION":        "us-east-1",
			"EAGER_SERVICE_LOADING": "1",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("4566/tcp"),
			wait.ForHTTP("/_localstack/health").
				WithPort("4566/tcp").
				WithStartupTimeout(60*time.Second),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start localstack container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "4566")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get container port: %v", err)
	}

	helper := &localstackHelper{
		container: container,
		endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
	helper.createClient(t)

	return helper
}

// createClient creates an S3 client configured for Localstack.
func (lh *localstackHelper) createClient(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			"test", "test", "",
		)),
	)
	if err != nil {
		t.Fatalf("failed to load AWS config: %v", err)
	}

	lh.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = &lh.endpoint
		o.UsePathStyle = true
	})
}

// createBucket creates a new S3 bucket.
func (lh *localstackHelper) createBucket(t *testing.T, bucketName string) {
	t.Helper()
	ctx := context.Background()

	_, err := lh.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		t.Fatalf("failed to create test bucket: %v", err)
	}
}

// cleanup terminates the container if we started one.
func (lh *localstackHelper) cleanup() {
	if lh.container != nil {
		ctx := context.Background()
		_ = lh.container.Terminate(ctx)
	}
}

// newTestStore creates an S3 store over a fresh bucket.
func newTestStore(t *testing.T, helper *localstackHelper) *Store {
	t.Helper()

	bucketName := fmt.Sprintf("test-bucket-%d", time.Now().UnixNano())
	helper.createBucket(t, bucketName)

	return New(helper.client, Config{
		Bucket:    bucketName,
		KeyPrefix: "lectern/",
	})
}

func TestStore_PutAndGet(t *testing.T) {
	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	ctx := context.Background()
	s := newTestStore(t, helper)
	defer s.Close()

	key := "users/abc123/sess-1/metadata.json"
	data := []byte(`{"session_id":"sess-1"}`)

	if err := s.Put(ctx, key, data, nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	read, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if string(read) != string(data) {
		t.Errorf("Get returned %q, want %q", read, data)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	ctx := context.Background()
	s := newTestStore(t, helper)
	defer s.Close()

	_, err := s.Get(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get returned error %v, want %v", err, storage.ErrNotFound)
	}
}

func TestStore_PutStream(t *testing.T) {
	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	ctx := context.Background()
	s := newTestStore(t, helper)
	defer s.Close()

	key := "users/abc123/sess-1/report.pdf"
	if err := s.PutStream(ctx, key, strings.NewReader("pdf bytes"), nil); err != nil {
		t.Fatalf("PutStream failed: %v", err)
	}

	rc, err := s.GetStream(ctx, key)
	if err != nil {
		t.Fatalf("GetStream failed: %v", err)
	}
	defer rc.Close()

	read, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading stream failed: %v", err)
	}
	if string(read) != "pdf bytes" {
		t.Errorf("GetStream returned %q, want %q", read, "pdf bytes")
	}
}

func TestStore_PutOptions(t *testing.T) {
	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	ctx := context.Background()
	s := newTestStore(t, helper)
	defer s.Close()

	key := "users/abc123/sess-1/status.json"
	opts := &storage.PutOptions{
		ContentType:  "application/json",
		CacheControl: "no-cache, max-age=0",
	}
	if err := s.Put(ctx, key, []byte("{}"), opts); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// The options must land as object headers.
	head, err := helper.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String("lectern/" + key),
	})
	if err != nil {
		t.Fatalf("HeadObject failed: %v", err)
	}

	if got := aws.ToString(head.ContentType); got != opts.ContentType {
		t.Errorf("ContentType = %q, want %q", got, opts.ContentType)
	}
	if got := aws.ToString(head.CacheControl); got != opts.CacheControl {
		t.Errorf("CacheControl = %q, want %q", got, opts.CacheControl)
	}
}

func TestStore_Delete(t *testing.T) {
	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	ctx := context.Background()
	s := newTestStore(t, helper)
	defer s.Close()

	key := "users/abc123/sess-1/metadata.json"
	if err := s.Put(ctx, key, []byte("{}"), nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	existed, err := s.Delete(ctx, key)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !existed {
		t.Error("Delete reported existed=false for a present object")
	}

	existed, err = s.Delete(ctx, key)
	if err != nil {
		t.Fatalf("Delete of missing object failed: %v", err)
	}
	if existed {
		t.Error("Delete reported existed=true for a missing object")
	}

	if _, err := s.Get(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get after delete returned error %v, want %v", err, storage.ErrNotFound)
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	ctx := context.Background()
	s := newTestStore(t, helper)
	defer s.Close()

	objects := map[string][]byte{
		"users/abc123/sess-1/metadata.json":      []byte("{}"),
		"users/abc123/sess-1/pages/page_001.png": []byte("p1"),
		"users/abc123/sess-1/pages/page_002.png": []byte("p2"),
		"users/abc123/sess-2/metadata.json":      []byte("{}"),
	}
	for key, data := range objects {
		if err := s.Put(ctx, key, data, nil); err != nil {
			t.Fatalf("Put(%s) failed: %v", key, err)
		}
	}

	if err := s.DeletePrefix(ctx, "users/abc123/sess-1/"); err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}

	infos, err := s.List(ctx, "users/abc123/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("List returned %d objects, want 1: %v", len(infos), infos)
	}
	if infos[0].Name != "sess-2/metadata.json" {
		t.Errorf("surviving object = %q, want %q", infos[0].Name, "sess-2/metadata.json")
	}

	// A prefix with no objects is not an error.
	if err := s.DeletePrefix(ctx, "users/nobody/"); err != nil {
		t.Errorf("DeletePrefix on empty prefix returned error: %v", err)
	}
}

func TestStore_List(t *testing.T) {
	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	ctx := context.Background()
	s := newTestStore(t, helper)
	defer s.Close()

	for _, key := range []string{
		"users/abc123/sess-1/pages/page_002.png",
		"users/abc123/sess-1/pages/page_001.png",
		"users/abc123/sess-1/metadata.json",
	} {
		if err := s.Put(ctx, key, []byte("x"), nil); err != nil {
			t.Fatalf("Put(%s) failed: %v", key, err)
		}
	}

	infos, err := s.List(ctx, "users/abc123/sess-1/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{"metadata.json", "pages/page_001.png", "pages/page_002.png"}
	if len(infos) != len(want) {
		t.Fatalf("List returned %d objects, want %d", len(infos), len(want))
	}
	for i, name := range want {
		if infos[i].Name != name {
			t.Errorf("List[%d].Name = %q, want %q", i, infos[i].Name, name)
		}
	}

	empty, err := s.List(ctx, "users/nobody/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("List of empty prefix returned %d objects, want 0", len(empty))
	}
}

func TestStore_KeyPrefix(t *testing.T) {
	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	ctx := context.Background()
	bucketName := fmt.Sprintf("test-bucket-%d", time.Now().UnixNano())
	helper.createBucket(t, bucketName)

	s := New(helper.client, Config{
		Bucket:    bucketName,
		KeyPrefix: "custom/prefix/",
	})
	defer s.Close()

	if err := s.Put(ctx, "metadata.json", []byte("{}"), nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// The raw S3 key carries the prefix.
	resp, err := helper.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		t.Fatalf("ListObjectsV2 failed: %v", err)
	}
	if len(resp.Contents) != 1 {
		t.Fatalf("expected 1 object, got %d", len(resp.Contents))
	}
	if got := aws.ToString(resp.Contents[0].Key); got != "custom/prefix/metadata.json" {
		t.Errorf("S3 key = %q, want %q", got, "custom/prefix/metadata.json")
	}

	// Reads go through the same prefix transparently.
	if _, err := s.Get(ctx, "metadata.json"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
}

func TestStore_HealthCheck(t *testing.T) {
	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	ctx := context.Background()
	s := newTestStore(t, helper)
	defer s.Close()

	if err := s.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func TestStore_ClosedOperations(t *testing.T) {
	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	ctx := context.Background()
	s := newTestStore(t, helper)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := s.Put(ctx, "key", []byte("data"), nil); !errors.Is(err, storage.ErrStoreClosed) {
		t.Errorf("Put on closed store returned %v, want %v", err, storage.ErrStoreClosed)
	}
	if _, err := s.Get(ctx, "key"); !errors.Is(err, storage.ErrStoreClosed) {
		t.Errorf("Get on closed store returned %v, want %v", err, storage.ErrStoreClosed)
	}
	if _, err := s.List(ctx, ""); !errors.Is(err, storage.ErrStoreClosed) {
		t.Errorf("List on closed store returned %v, want %v", err, storage.ErrStoreClosed)
	}
	if err := s.HealthCheck(ctx); !errors.Is(err, storage.ErrStoreClosed) {
		t.Errorf("HealthCheck on closed store returned %v, want %v", err, storage.ErrStoreClosed)
	}
}

func TestNewFromConfig_StaticCredentials(t *testing.T) {
	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	ctx := context.Background()
	bucketName := fmt.Sprintf("test-bucket-%d", time.Now().UnixNano())
	helper.createBucket(t, bucketName)

	// The production constructor path: endpoint, path style and static
	// credentials straight from configuration.
	s, err := NewFromConfig(ctx, Config{
		Bucket:          bucketName,
		Region:          "us-east-1",
		Endpoint:        helper.endpoint,
		ForcePathStyle:  true,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	defer s.Close()

	if err := s.Put(ctx, "probe.txt", []byte("ok"), nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	read, err := s.Get(ctx, "probe.txt")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(read) != "ok" {
		t.Errorf("Get returned %q, want %q", read, "ok")
	}
}
