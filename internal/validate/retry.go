package validate

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/analysis"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/prompts/analyze"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/providers"
)

// DefaultMaxRetries is the number of correction retries after the first
// attempt (3 total attempts).
const DefaultMaxRetries = 2

// rawLogLimit bounds how much raw model output goes into the logs.
const rawLogLimit = 2000

// SchemaError reports that no valid Analysis could be obtained within the
// retry budget. It carries the last failure for diagnosis; the raw output is
// log-only and never surfaced to end users.
type SchemaError struct {
	Attempts  int
	Reason    string
	RawOutput string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("no valid analysis after %d attempts: %s", e.Attempts, e.Reason)
}

// RetryWithCorrection calls the model and validates its output, retrying with
// an appended corrective instruction on parse, validation, timeout or call
// failure. The retry budget is an explicit attempt counter, not control-flow
// sugar: exactly maxRetries+1 calls are made before giving up. Call failures
// and bad output share the same budget because from the pipeline's view both
// mean "this chunk produced no usable result".
//
// It returns the validated Analysis and the number of attempts used, or a
// *SchemaError once the budget is exhausted.
func RetryWithCorrection(
	ctx context.Context,
	client providers.LLMClient,
	req *providers.GenerateRequest,
	maxRetries int,
	logger *slog.Logger,
) (*analysis.Analysis, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}

	originalPrompt := req.Prompt
	attempts := maxRetries + 1

	var lastReason string
	var lastRaw string

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt - 1, err
		}

		callReq := *req
		if attempt > 1 {
			callReq.Prompt = originalPrompt + analyze.CorrectionInstruction(lastReason)
		}

		result, err := client.Generate(ctx, &callReq)
		if err != nil {
			lastReason = fmt.Sprintf("model call failed: %v", err)
			lastRaw = ""
			logger.Warn("model call failed",
				"attempt", attempt,
				"max_attempts", attempts,
				"error", err)
			continue
		}

		a, err := ParseAndValidate(result.Content)
		if err == nil {
			if attempt > 1 {
				logger.Info("valid analysis after correction",
					"attempt", attempt)
			}
			return a, attempt, nil
		}

		lastReason = err.Error()
		lastRaw = result.Content
		logger.Warn("model output failed validation",
			"attempt", attempt,
			"max_attempts", attempts,
			"reason", lastReason,
			"raw_output", truncateForLog(lastRaw))
	}

	return nil, attempts, &SchemaError{
		Attempts:  attempts,
		Reason:    lastReason,
		RawOutput: lastRaw,
	}
}

func truncateForLog(s string) string {
	if len(s) <= rawLogLimit {
		return s
	}
	end := rawLogLimit
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end] + "...[truncated]"
}
