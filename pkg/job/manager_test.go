package job

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternhq/lectern/pkg/session"
	"github.com/lecternhq/lectern/pkg/storage"
	"github.com/lecternhq/lectern/pkg/storage/memory"
)

type runnerFunc func(ctx context.Context, payload *Payload) error

func (f runnerFunc) Process(ctx context.Context, payload *Payload) error {
	return f(ctx, payload)
}

type recordingJobMetrics struct {
	mu        sync.Mutex
	created   []string
	completed []string
	failed    []string
}

func (m *recordingJobMetrics) JobCreated(jobType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, jobType)
}

func (m *recordingJobMetrics) JobCompleted(jobType string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, jobType)
}

func (m *recordingJobMetrics) JobFailed(jobType string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, jobType)
}

func (m *recordingJobMetrics) snapshot() (created, completed, failed []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.created...),
		append([]string(nil), m.completed...),
		append([]string(nil), m.failed...)
}

func newTestManager(t *testing.T, cfg Config) (*Manager, *session.Store, *recordingJobMetrics) {
	t.Helper()
	gateway := storage.NewGateway(memory.New())
	t.Cleanup(func() { _ = gateway.Close() })
	sessions := session.NewStore(gateway)
	metrics := &recordingJobMetrics{}
	return NewManager(sessions, cfg, metrics), sessions, metrics
}

func drain(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Drain(ctx))
}

func TestCreate_RunsJobLocally(t *testing.T) {
	t.Parallel()

	m, sessions, metrics := newTestManager(t, Config{})

	var (
		mu  sync.Mutex
		got *Payload
	)
	m.Bind(runnerFunc(func(_ context.Context, payload *Payload) error {
		mu.Lock()
		defer mu.Unlock()
		got = payload
		return nil
	}))

	jobID, err := m.Create(context.Background(), "sess-1", TypeExtractPages,
		InputData{Filename: "doc.pdf", StartPage: 1}, "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	drain(t, m)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.Equal(t, jobID, got.JobID)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, TypeExtractPages, got.JobType)
	assert.Equal(t, "doc.pdf", got.InputData.Filename)
	assert.Equal(t, "alice@example.com", got.UserEmail)

	meta, err := sessions.Get(context.Background(), "alice@example.com", "sess-1")
	require.NoError(t, err)
	require.Len(t, meta.Jobs, 1)
	assert.Equal(t, jobID, meta.Jobs[0].JobID)
	assert.Equal(t, "extract_pages", meta.Jobs[0].JobType)

	created, completed, failed := metrics.snapshot()
	assert.Equal(t, []string{"extract_pages"}, created)
	assert.Equal(t, []string{"extract_pages"}, completed)
	assert.Empty(t, failed)
}

func TestCreate_UnknownType(t *testing.T) {
	t.Parallel()

	m, sessions, metrics := newTestManager(t, Config{})

	_, err := m.Create(context.Background(), "sess-1", Type("reticulate"), InputData{}, "alice@example.com")
	require.ErrorIs(t, err, ErrUnknownType)

	// Nothing was recorded anywhere.
	_, err = sessions.Get(context.Background(), "alice@example.com", "sess-1")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
	created, _, _ := metrics.snapshot()
	assert.Empty(t, created)
}

func TestLocalPool_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t, Config{Workers: 2})

	var active, peak atomic.Int32
	release := make(chan struct{})
	m.Bind(runnerFunc(func(_ context.Context, _ *Payload) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		active.Add(-1)
		return nil
	}))

	for i := 0; i < 5; i++ {
		_, err := m.Create(context.Background(), "sess-1", TypeOCR,
			InputData{TotalPages: 1, StartPage: 1}, "alice@example.com")
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return active.Load() == 2 },
		2*time.Second, 10*time.Millisecond)
	// Give stragglers a chance to over-admit, then check the bound held.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), active.Load())

	close(release)
	drain(t, m)
	assert.Equal(t, int32(2), peak.Load())
}

func TestRun_ContainsPanic(t *testing.T) {
	t.Parallel()

	m, _, metrics := newTestManager(t, Config{})
	m.Bind(runnerFunc(func(_ context.Context, _ *Payload) error {
		panic("page table on fire")
	}))

	err := m.Run(context.Background(), &Payload{
		JobID:     "job-1",
		SessionID: "sess-1",
		JobType:   TypeOCR,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job panicked")
	assert.Contains(t, err.Error(), "page table on fire")

	_, _, failed := metrics.snapshot()
	assert.Equal(t, []string{"ocr"}, failed)
}

func TestRun_NoRunnerBound(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t, Config{})
	err := m.Run(context.Background(), &Payload{JobID: "job-1", JobType: TypeOCR})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no runner bound")
}

func TestRemote_PostsPayload(t *testing.T) {
	t.Parallel()

	type received struct {
		path        string
		contentType string
		body        map[string]any
	}
	reqs := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		reqs <- received{path: r.URL.Path, contentType: r.Header.Get("Content-Type"), body: body}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	m, _, metrics := newTestManager(t, Config{Mode: ModeRemote, WorkerURL: srv.URL})

	jobID, err := m.Create(context.Background(), "sess-1", TypeExtractPages,
		InputData{Filename: "doc.pdf", StartPage: 1}, "alice@example.com")
	require.NoError(t, err)

	drain(t, m)

	var got received
	select {
	case got = <-reqs:
	default:
		t.Fatal("worker endpoint never called")
	}
	assert.Equal(t, "/worker/process-job", got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, jobID, got.body["job_id"])
	assert.Equal(t, "sess-1", got.body["session_id"])
	assert.Equal(t, "extract_pages", got.body["job_type"])
	assert.Equal(t, "alice@example.com", got.body["user_email"])
	input, ok := got.body["input_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "doc.pdf", input["filename"])
	assert.Equal(t, float64(1), input["start_page"])

	_, _, failed := metrics.snapshot()
	assert.Empty(t, failed)
}

func TestRemote_RetriesTransientFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	m, _, metrics := newTestManager(t, Config{Mode: ModeRemote, WorkerURL: srv.URL})

	_, err := m.Create(context.Background(), "sess-1", TypeExtractPages,
		InputData{Filename: "doc.pdf", StartPage: 1}, "alice@example.com")
	require.NoError(t, err)

	drain(t, m)

	assert.Equal(t, int32(2), calls.Load())
	_, _, failed := metrics.snapshot()
	assert.Empty(t, failed)
}

func TestRemote_GivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "still broken", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	m, _, metrics := newTestManager(t, Config{
		Mode:            ModeRemote,
		WorkerURL:       srv.URL,
		DispatchRetries: 1,
	})

	_, err := m.Create(context.Background(), "sess-1", TypeExtractPages,
		InputData{Filename: "doc.pdf", StartPage: 1}, "alice@example.com")
	require.NoError(t, err)

	drain(t, m)

	assert.Equal(t, int32(2), calls.Load())
	_, _, failed := metrics.snapshot()
	assert.Equal(t, []string{"extract_pages"}, failed)
}

func TestRemote_RejectedPayloadNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	m, _, metrics := newTestManager(t, Config{Mode: ModeRemote, WorkerURL: srv.URL})

	_, err := m.Create(context.Background(), "sess-1", TypeExtractPages,
		InputData{Filename: "doc.pdf", StartPage: 1}, "alice@example.com")
	require.NoError(t, err)

	drain(t, m)

	assert.Equal(t, int32(1), calls.Load())
	_, _, failed := metrics.snapshot()
	assert.Equal(t, []string{"extract_pages"}, failed)
}

func TestRemote_DelaysContinuationBatches(t *testing.T) {
	t.Parallel()

	received := make(chan time.Time, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received <- time.Now()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	m, _, _ := newTestManager(t, Config{
		Mode:              ModeRemote,
		WorkerURL:         srv.URL,
		ContinuationDelay: 60 * time.Millisecond,
	})

	start := time.Now()
	_, err := m.Create(context.Background(), "sess-1", TypeExtractPages,
		InputData{Filename: "doc.pdf", StartPage: 11}, "alice@example.com")
	require.NoError(t, err)

	drain(t, m)

	at := <-received
	assert.GreaterOrEqual(t, at.Sub(start), 60*time.Millisecond)
}

func TestDispatchError(t *testing.T) {
	t.Parallel()

	transient := &DispatchError{StatusCode: 503, Body: "queue unavailable"}
	assert.True(t, transient.Transient())
	assert.Equal(t, "worker returned status 503: queue unavailable", transient.Error())

	rejected := &DispatchError{StatusCode: 404, Body: "no such route"}
	assert.False(t, rejected.Transient())

	var de *DispatchError
	assert.True(t, errors.As(error(transient), &de))
}

func TestParseType(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"extract_pages", "ocr", "slice_image"} {
		parsed, err := ParseType(name)
		require.NoError(t, err)
		assert.Equal(t, name, parsed.String())
		assert.True(t, parsed.IsValid())
	}

	_, err := ParseType("combine_results")
	require.ErrorIs(t, err, ErrUnknownType)
	assert.False(t, Type("").IsValid())
}
