package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing. Responses are served from a queue:
// each call pops the next entry, and the last entry repeats once the queue is
// exhausted.
type MockClient struct {
	// Configurable behavior
	Latency    time.Duration
	ShouldFail bool
	FailAfter  int // Fail every request after the first N (0 = never)

	mu        sync.Mutex
	responses []string

	// State
	requestCount atomic.Int64
	prompts      []string
}

// NewMockClient creates a mock that answers every request with response.
func NewMockClient(response string) *MockClient {
	return &MockClient{
		Latency:   time.Millisecond,
		responses: []string{response},
	}
}

// NewMockClientQueue creates a mock that answers with each response in turn.
func NewMockClientQueue(responses ...string) *MockClient {
	return &MockClient{
		Latency:   time.Millisecond,
		responses: responses,
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Healthy always reports true unless the mock is configured to fail.
func (c *MockClient) Healthy(ctx context.Context) bool {
	return !c.ShouldFail
}

// Generate pops the next queued response.
func (c *MockClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()
	count := int(c.requestCount.Add(1))

	c.mu.Lock()
	c.prompts = append(c.prompts, req.Prompt)
	var content string
	if len(c.responses) > 0 {
		idx := count - 1
		if idx >= len(c.responses) {
			idx = len(c.responses) - 1
		}
		content = c.responses[idx]
	}
	c.mu.Unlock()

	if c.ShouldFail {
		return failedResult(req.Model, start, fmt.Errorf("mock client configured to fail")),
			fmt.Errorf("mock client configured to fail")
	}
	if c.FailAfter > 0 && count > c.FailAfter {
		err := fmt.Errorf("mock client failed after %d requests", c.FailAfter)
		return failedResult(req.Model, start, err), err
	}

	select {
	case <-time.After(c.Latency):
	case <-ctx.Done():
		return failedResult(req.Model, start, ctx.Err()), ctx.Err()
	}

	return &GenerateResult{
		Content:   content,
		ModelUsed: req.Model,
		Duration:  time.Since(start),
		Success:   true,
	}, nil
}

// RequestCount returns the number of Generate calls made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Prompts returns a copy of every prompt received, in order.
func (c *MockClient) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// Reset clears the request counter and recorded prompts.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
	c.mu.Lock()
	c.prompts = nil
	c.mu.Unlock()
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
