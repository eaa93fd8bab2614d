// Package providers contains the LLM client boundary: the interface the
// pipeline calls, the local Ollama implementation and a mock for tests. The
// pipeline never talks to anything but a pre-configured localhost endpoint.
package providers

import (
	"context"
	"time"
)

// LLMClient is the text-completion interface the pipeline depends on.
type LLMClient interface {
	// Generate sends a single completion request and returns the raw model
	// output. Implementations apply req.Timeout to the call.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// Healthy reports whether the backing service is reachable.
	Healthy(ctx context.Context) bool

	// Name returns the client identifier (e.g. "ollama").
	Name() string
}

// GenerateRequest is a single completion request.
type GenerateRequest struct {
	Model       string        `json:"model"`
	Prompt      string        `json:"prompt"`
	Temperature float64       `json:"temperature"`
	Format      string        `json:"format,omitempty"` // "json" requests JSON-mode output
	Timeout     time.Duration `json:"-"`
}

// GenerateResult is the response from a completion call.
type GenerateResult struct {
	Content   string        `json:"content"`
	ModelUsed string        `json:"model_used"`
	Duration  time.Duration `json:"duration"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}
