package job

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lecternhq/lectern/internal/logger"
	"github.com/lecternhq/lectern/internal/telemetry"
	"github.com/lecternhq/lectern/pkg/session"
)

// Dispatch modes.
const (
	// ModeLocal runs jobs on an in-process worker pool.
	ModeLocal = "local"

	// ModeRemote posts payloads to an external HTTP task queue.
	ModeRemote = "remote"
)

// Remote dispatch defaults and retry tuning.
const (
	DefaultDispatchTimeout   = 600 * time.Second
	DefaultContinuationDelay = 5 * time.Second
	DefaultDispatchRetries   = 3

	dispatchInitialDelay  = 500 * time.Millisecond
	dispatchMaxDelay      = 5 * time.Second
	dispatchBackoffFactor = 2

	processJobPath = "/worker/process-job"
)

// DefaultWorkers is the local pool size when the config leaves it unset:
// one worker per CPU core, at least two.
func DefaultWorkers() int {
	if n := runtime.NumCPU(); n > 2 {
		return n
	}
	return 2
}

// Config selects and tunes the dispatch backend.
type Config struct {
	// Mode is ModeLocal or ModeRemote.
	Mode string

	// Workers bounds the local pool. Zero means DefaultWorkers().
	Workers int

	// WorkerURL is the base URL of the remote queue (remote mode only).
	WorkerURL string

	// DispatchTimeout bounds one remote dispatch attempt.
	DispatchTimeout time.Duration

	// ContinuationDelay postpones remote dispatch of continuation batches
	// (start_page > 1) to smooth bursts.
	ContinuationDelay time.Duration

	// DispatchRetries bounds redelivery attempts after a transport error
	// or a 5xx from the remote queue.
	DispatchRetries int

	// HTTPClient overrides the remote dispatch client. Nil uses a default
	// client; the per-attempt context carries the deadline.
	HTTPClient *http.Client
}

// Runner executes one job payload to completion.
type Runner interface {
	Process(ctx context.Context, payload *Payload) error
}

// Manager creates jobs and dispatches them to the configured backend. The
// durable trace of a job is only the reference appended to the session
// metadata; everything else rides in the payload.
type Manager struct {
	sessions   *session.Store
	cfg        Config
	metrics    Metrics
	httpClient *http.Client

	runner Runner

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewManager creates a Manager. Zero config fields take the package
// defaults. Bind must be called before the first Create.
func NewManager(sessions *session.Store, cfg Config, metrics Metrics) *Manager {
	if cfg.Mode == "" {
		cfg.Mode = ModeLocal
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers()
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = DefaultDispatchTimeout
	}
	if cfg.ContinuationDelay == 0 {
		cfg.ContinuationDelay = DefaultContinuationDelay
	}
	if cfg.DispatchRetries <= 0 {
		cfg.DispatchRetries = DefaultDispatchRetries
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Manager{
		sessions:   sessions,
		cfg:        cfg,
		metrics:    metrics,
		httpClient: httpClient,
		sem:        make(chan struct{}, cfg.Workers),
	}
}

// Bind sets the runner jobs execute on. Called once during startup; the
// processor and the manager reference each other, so the runner cannot be
// a constructor argument.
func (m *Manager) Bind(r Runner) {
	m.runner = r
}

// Create records a job in the session metadata and dispatches it. The
// returned job ID is the caller's only handle; progress is observed
// through the session status document.
func (m *Manager) Create(ctx context.Context, sessionID string, jobType Type, input InputData, userEmail string) (string, error) {
	if !jobType.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, jobType)
	}

	jobID := uuid.NewString()
	if err := m.sessions.AppendJob(ctx, userEmail, sessionID, jobID, jobType.String()); err != nil {
		return "", fmt.Errorf("recording job %s: %w", jobID, err)
	}

	payload := &Payload{
		JobID:     jobID,
		SessionID: sessionID,
		JobType:   jobType,
		InputData: input,
		UserEmail: userEmail,
	}

	if m.metrics != nil {
		m.metrics.JobCreated(jobType.String())
	}
	logger.Info("Job submitted",
		logger.JobID(jobID),
		logger.JobType(jobType.String()),
		logger.SessionID(sessionID),
		logger.StartPage(input.StartPage))

	if m.cfg.Mode == ModeRemote {
		m.dispatchRemote(payload)
	} else {
		m.submitLocal(payload)
	}
	return jobID, nil
}

// Run executes one payload to completion, containing panics and recording
// the outcome. The local pool and the worker callback both come through
// here so completion logging and metrics are identical in every mode.
func (m *Manager) Run(ctx context.Context, payload *Payload) (err error) {
	ctx, span := telemetry.StartJobSpan(ctx, payload.JobType.String(), payload.JobID, payload.SessionID)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
		telemetry.RecordError(ctx, err)
		span.End()
		m.finish(payload, err, time.Since(start))
	}()

	if m.runner == nil {
		return errors.New("job manager has no runner bound")
	}
	return m.runner.Process(ctx, payload)
}

func (m *Manager) finish(payload *Payload, err error, elapsed time.Duration) {
	jobType := payload.JobType.String()
	if err != nil {
		if m.metrics != nil {
			m.metrics.JobFailed(jobType, elapsed)
		}
		logger.Error("Job failed",
			logger.JobID(payload.JobID),
			logger.JobType(jobType),
			logger.SessionID(payload.SessionID),
			logger.JobStatus("failed"),
			"message", err.Error(),
			logger.DurationMs(float64(elapsed.Milliseconds())))
		return
	}

	if m.metrics != nil {
		m.metrics.JobCompleted(jobType, elapsed)
	}
	logger.Info("Job completed",
		logger.JobID(payload.JobID),
		logger.JobType(jobType),
		logger.SessionID(payload.SessionID),
		logger.JobStatus("completed"),
		"message", fmt.Sprintf("Job %s completed successfully", jobType),
		logger.DurationMs(float64(elapsed.Milliseconds())))
}

// submitLocal queues the payload on the bounded pool. Submission never
// blocks; the goroutine waits for a pool slot.
func (m *Manager) submitLocal(payload *Payload) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.sem <- struct{}{}
		defer func() { <-m.sem }()

		// Jobs outlive the request that created them.
		_ = m.Run(context.Background(), payload)
	}()
}

// dispatchRemote posts the payload to the remote queue in the background,
// delaying continuation batches to smooth bursts.
func (m *Manager) dispatchRemote(payload *Payload) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		if payload.InputData.StartPage > 1 {
			time.Sleep(m.cfg.ContinuationDelay)
		}
		if err := m.postJob(payload); err != nil {
			if m.metrics != nil {
				m.metrics.JobFailed(payload.JobType.String(), 0)
			}
			logger.Error("Remote dispatch failed",
				logger.JobID(payload.JobID),
				logger.JobType(payload.JobType.String()),
				logger.SessionID(payload.SessionID),
				logger.Err(err))
		}
	}()
}

// Drain blocks until in-flight local jobs and pending dispatches finish,
// or ctx expires.
func (m *Manager) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DispatchError is a non-2xx response from the remote worker queue.
type DispatchError struct {
	StatusCode int
	Body       string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("worker returned status %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the dispatch may succeed on retry.
func (e *DispatchError) Transient() bool {
	return e.StatusCode >= 500
}

func (m *Manager) postJob(payload *Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding job payload: %w", err)
	}
	url := strings.TrimRight(m.cfg.WorkerURL, "/") + processJobPath

	delay := dispatchInitialDelay
	var lastErr error
	for attempt := 0; attempt <= m.cfg.DispatchRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("Retrying job dispatch",
				logger.JobID(payload.JobID),
				logger.Attempt(attempt),
				logger.MaxRetries(m.cfg.DispatchRetries),
				logger.Err(lastErr))
			time.Sleep(delay)
			delay *= dispatchBackoffFactor
			if delay > dispatchMaxDelay {
				delay = dispatchMaxDelay
			}
		}

		lastErr = m.postOnce(url, data)
		if lastErr == nil {
			return nil
		}
		if !retryableDispatch(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("dispatching job after %d attempts: %w", m.cfg.DispatchRetries+1, lastErr)
}

func (m *Manager) postOnce(url string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DispatchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &DispatchError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}
	return nil
}

// retryableDispatch treats transport failures and 5xx responses as
// transient; a 4xx means the payload itself is rejected.
func retryableDispatch(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Transient()
	}
	return true
}
