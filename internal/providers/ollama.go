package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const OllamaClientName = "ollama"

// DefaultOllamaEndpoint is the standard local Ollama address.
const DefaultOllamaEndpoint = "http://localhost:11434"

// ErrNotLocal is returned when a client is configured with a non-localhost
// endpoint. Document text never leaves the machine.
var ErrNotLocal = errors.New("ollama endpoint must be a localhost address")

// OllamaClient talks to a local Ollama service over HTTP.
type OllamaClient struct {
	endpoint      string
	client        *http.Client
	healthTimeout time.Duration
}

// OllamaConfig configures an OllamaClient.
type OllamaConfig struct {
	Endpoint      string        // default: DefaultOllamaEndpoint
	HealthTimeout time.Duration // default: 3s
}

// NewOllamaClient creates a client for a local Ollama endpoint. It fails with
// ErrNotLocal if the endpoint does not resolve to the local machine.
func NewOllamaClient(cfg OllamaConfig) (*OllamaClient, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}
	if err := checkLocalEndpoint(endpoint); err != nil {
		return nil, err
	}

	healthTimeout := cfg.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 3 * time.Second
	}

	return &OllamaClient{
		endpoint:      strings.TrimRight(endpoint, "/"),
		client:        &http.Client{},
		healthTimeout: healthTimeout,
	}, nil
}

// checkLocalEndpoint verifies the endpoint host is a loopback address.
func checkLocalEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid ollama endpoint %q: %w", endpoint, err)
	}
	host := u.Hostname()
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return fmt.Errorf("%w: got %q", ErrNotLocal, endpoint)
}

// Name returns the client identifier.
func (c *OllamaClient) Name() string {
	return OllamaClientName
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Generate sends a completion request to /api/generate. The request timeout is
// taken from req.Timeout; a timeout or connection failure is reported as an
// error so the caller's retry budget can absorb it.
func (c *OllamaClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	body := ollamaGenerateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stream: false,
		Format: req.Format,
		Options: map[string]any{
			"temperature": req.Temperature,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return failedResult(req.Model, start, err), fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failedResult(req.Model, start, err), fmt.Errorf("failed to read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(respBody))
		return failedResult(req.Model, start, err), err
	}

	var genResp ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return failedResult(req.Model, start, err), fmt.Errorf("failed to unmarshal ollama response: %w", err)
	}
	if genResp.Error != "" {
		err := fmt.Errorf("ollama error: %s", genResp.Error)
		return failedResult(req.Model, start, err), err
	}
	if genResp.Response == "" {
		err := errors.New("ollama returned empty response")
		return failedResult(req.Model, start, err), err
	}

	return &GenerateResult{
		Content:   genResp.Response,
		ModelUsed: req.Model,
		Duration:  time.Since(start),
		Success:   true,
	}, nil
}

func failedResult(model string, start time.Time, err error) *GenerateResult {
	return &GenerateResult{
		ModelUsed:    model,
		Duration:     time.Since(start),
		Success:      false,
		ErrorMessage: err.Error(),
	}
}

// Healthy reports whether the local Ollama service answers /api/version.
func (c *OllamaClient) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/version", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels returns the model names available on the local service.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d listing models", resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Verify interface
var _ LLMClient = (*OllamaClient)(nil)
