package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lecternhq/lectern/internal/logger"
)

const (
	// DefaultMaxNewTokens bounds generation length per page image.
	DefaultMaxNewTokens = 15000

	chatCompletionsPath = "/v1/chat/completions"
	modelsPath          = "/v1/models"

	// modelsPollInterval is how often Load re-checks the models endpoint.
	modelsPollInterval = 2 * time.Second

	// modelsCheckTimeout bounds a single models-endpoint probe so a dead
	// server fails the attempt instead of hanging the whole load.
	modelsCheckTimeout = 5 * time.Second
)

// ClientConfig configures the inference server client.
type ClientConfig struct {
	// Endpoint is the inference server base URL, e.g. "http://vllm:8000".
	Endpoint string

	// Model is the served model identifier.
	Model string

	// Device is the device label reported in health probes. Placement is
	// owned by the server; this only surfaces what the deployment claims.
	Device string

	// MaxNewTokens bounds generation length per page. Zero means
	// DefaultMaxNewTokens.
	MaxNewTokens int

	// HTTPClient overrides the default HTTP client. Mostly for tests.
	HTTPClient *http.Client
}

// Client is a Model backed by an OpenAI-compatible inference server.
//
// Load polls the server's models endpoint until the configured model is
// listed, which is the server's signal that weights are in memory.
// Generate sends one chat completion per page image with deterministic
// decoding, so the same page always yields the same text.
type Client struct {
	endpoint     string
	model        string
	device       string
	maxNewTokens int
	httpClient   *http.Client

	loadMu sync.Mutex
	loaded atomic.Bool
}

// NewClient creates an inference server client.
func NewClient(cfg ClientConfig) *Client {
	maxNewTokens := cfg.MaxNewTokens
	if maxNewTokens <= 0 {
		maxNewTokens = DefaultMaxNewTokens
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No client-level timeout: a single page can legitimately generate
		// for minutes. Callers bound Generate through ctx.
		httpClient = &http.Client{}
	}

	return &Client{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		model:        cfg.Model,
		device:       cfg.Device,
		maxNewTokens: maxNewTokens,
		httpClient:   httpClient,
	}
}

// ID implements Model.
func (c *Client) ID() string { return c.model }

// Device implements Model.
func (c *Client) Device() string { return c.device }

// Loaded implements Model.
func (c *Client) Loaded() bool { return c.loaded.Load() }

// Load implements Model. It polls the models endpoint until the configured
// model is served or ctx expires. Concurrent callers serialize on a mutex,
// so only one poll loop runs at a time.
func (c *Client) Load(ctx context.Context) error {
	if c.loaded.Load() {
		return nil
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	if c.loaded.Load() {
		return nil
	}

	logger.Info("waiting for inference server", "endpoint", c.endpoint, "model", c.model)

	ticker := time.NewTicker(modelsPollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		err := c.checkServed(ctx)
		if err == nil {
			c.loaded.Store(true)
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return fmt.Errorf("inference server not ready: %w (last probe: %v)", ctx.Err(), lastErr)
		case <-ticker.C:
		}
	}
}

// checkServed probes the models endpoint once and verifies the configured
// model is in the served list.
func (c *Client) checkServed(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, modelsCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.endpoint+modelsPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create models request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("models request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("models endpoint returned %s", resp.Status)
	}

	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return fmt.Errorf("failed to decode models response: %w", err)
	}

	if len(list.Data) == 0 {
		return fmt.Errorf("inference server lists no models")
	}
	served := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		if m.ID == c.model {
			return nil
		}
		served = append(served, m.ID)
	}
	return fmt.Errorf("model %q not served (server lists %s)", c.model, strings.Join(served, ", "))
}

// chatRequest is the OpenAI-compatible completion request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate implements Model. The image goes first in the message so the
// instruction prompt can refer to "the above document".
func (c *Client) Generate(ctx context.Context, png []byte) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContent{
					{Type: "image_url", ImageURL: &chatImageURL{URL: pngDataURL(png)}},
					{Type: "text", Text: instructionPrompt},
				},
			},
		},
		Temperature: 0,
		MaxTokens:   c.maxNewTokens,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+chatCompletionsPath, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// pngDataURL inlines a PNG as a base64 data URL.
func pngDataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
