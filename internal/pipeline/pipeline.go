// Package pipeline sequences the document-to-analysis flow: normalize, chunk
// when the document exceeds the inline budget, then per chunk build the
// prompt, call the local model, validate and verify, and finally consolidate
// the partial results into one Analysis.
//
// The guarantee to callers: a structurally valid Analysis (possibly degraded,
// always flagged via notes and low confidence) or an explicit cancellation.
// Model flakiness never escapes as an unhandled failure.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/analysis"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/chunker"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/classify"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/consolidate"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/normalize"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/prompts/analyze"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/providers"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/validate"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/verify"
)

// State identifies the pipeline's current stage.
type State string

const (
	StateIdle           State = "idle"
	StateNormalizing    State = "normalizing"
	StateChunking       State = "chunking"
	StateBuildingPrompt State = "building_prompt"
	StateCallingModel   State = "calling_model"
	StateValidating     State = "validating"
	StateVerifying      State = "verifying"
	StateConsolidating  State = "consolidating"
	StateDone           State = "done"
	StateFailed         State = "failed"
	StateCancelled      State = "cancelled"
)

// SourceType records how the input text was produced. The pipeline treats all
// sources identically; the value is metadata for history records.
type SourceType string

const (
	SourceNative SourceType = "nativo"
	SourceOCR    SourceType = "ocr"
	SourceText   SourceType = "texto"
)

// Input is the boundary contract with the extraction layer.
type Input struct {
	Text       string
	PageCount  int
	SourceType SourceType
}

// Sentinel outcomes that propagate to the caller. All document-processing
// errors resolve into a degraded Analysis instead.
var (
	// ErrExtractionUnavailable means the upstream text was empty. The
	// degraded Analysis is still returned alongside it.
	ErrExtractionUnavailable = errors.New("extracted text is empty")
	// ErrCancelled means cooperative cancellation was observed at a chunk
	// boundary; no Analysis is returned.
	ErrCancelled = errors.New("analysis cancelled")
)

// ChunkResult pairs a per-chunk Analysis with its source chunk index. It is
// transient: it exists only until consolidation.
type ChunkResult struct {
	Index    int
	Analysis *analysis.Analysis
}

// Options is the full configuration surface of one pipeline run, threaded
// explicitly so concurrent pipelines and tests never share mutable state.
type Options struct {
	Model       string
	Temperature float64       // clamped to [0.1, 0.3]
	MaxTokens   int           // prompt token budget per call
	CallTimeout time.Duration // per model call (default 60s)
	MaxRetries  int           // correction retries per chunk (default 2)

	ChunkMaxWords   int
	ChunkOverlap    int
	InlineThreshold int

	// SkipVerification disables the confidence adjustment against the
	// source text. Date and currency normalization still run.
	SkipVerification bool

	Verify      verify.Config
	Consolidate consolidate.Config
}

func (o Options) withDefaults() Options {
	if o.Temperature < 0.1 || o.Temperature > 0.3 {
		o.Temperature = 0.2
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 8000
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 60 * time.Second
	}
	// Zero means unset: a run without correction retries would break the
	// documented three-attempt budget.
	if o.MaxRetries <= 0 || o.MaxRetries > 10 {
		o.MaxRetries = validate.DefaultMaxRetries
	}
	if o.ChunkMaxWords <= 0 {
		o.ChunkMaxWords = chunker.DefaultMaxWords
	}
	if o.ChunkOverlap <= 0 {
		o.ChunkOverlap = chunker.DefaultOverlapWords
	}
	if o.InlineThreshold <= 0 {
		o.InlineThreshold = chunker.DefaultInlineThreshold
	}
	return o
}

// Pipeline runs one document analysis at a time. Each concurrent document
// needs its own instance; a Pipeline owns no shared resources.
type Pipeline struct {
	client providers.LLMClient
	opts   Options
	logger *slog.Logger
	state  atomic.Value // State
}

// New creates a pipeline over the given LLM client.
func New(client providers.LLMClient, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		client: client,
		opts:   opts.withDefaults(),
		logger: logger,
	}
	p.state.Store(StateIdle)
	return p
}

// State returns the pipeline's current stage.
func (p *Pipeline) State() State {
	return p.state.Load().(State)
}

func (p *Pipeline) setState(s State) {
	p.state.Store(s)
	p.logger.Debug("pipeline state", "state", string(s))
}

// Run executes the full pipeline for one document. Chunk failures are
// absorbed: a chunk whose retries are exhausted contributes no partial result,
// and only a total absence of usable results degrades the whole Analysis.
func (p *Pipeline) Run(ctx context.Context, in Input) (*analysis.Analysis, error) {
	p.setState(StateNormalizing)

	text := normalize.Normalize(in.Text)
	if text == "" {
		p.setState(StateFailed)
		p.logger.Warn("no text to analyze", "source_type", string(in.SourceType))
		a := analysis.Degraded(
			"Análisis no disponible: el documento no contiene texto extraíble",
			"El texto extraído está vacío; no se realizó ningún análisis")
		return a, ErrExtractionUnavailable
	}

	p.setState(StateChunking)
	var chunks []string
	if chunker.NeedsChunking(text, p.opts.InlineThreshold) {
		chunks = chunker.Split(text, p.opts.ChunkMaxWords, p.opts.ChunkOverlap)
		p.logger.Info("document chunked",
			"words", chunker.WordCount(text),
			"chunks", len(chunks))
	} else {
		chunks = []string{text}
	}

	results := make([]ChunkResult, 0, len(chunks))
	for i, chunk := range chunks {
		// Cooperative cancellation, checked at chunk boundaries only:
		// an in-flight model call runs to completion or timeout.
		if err := ctx.Err(); err != nil {
			p.setState(StateCancelled)
			p.logger.Warn("analysis cancelled", "completed_chunks", len(results))
			return nil, ErrCancelled
		}

		a, ok := p.runChunk(ctx, chunk, i, len(chunks))
		if ctx.Err() != nil {
			p.setState(StateCancelled)
			return nil, ErrCancelled
		}
		if !ok {
			continue
		}
		results = append(results, ChunkResult{Index: i, Analysis: a})
	}

	p.setState(StateConsolidating)
	final, err := p.consolidateResults(results, len(chunks))
	if err != nil {
		p.setState(StateFailed)
		return nil, err
	}

	// A degraded result stays degraded: keyword evidence must not lend
	// confidence to an analysis no chunk actually produced.
	if len(results) > 0 {
		p.refineType(final, text)
	}

	p.setState(StateDone)
	p.logger.Info("analysis complete",
		"document_type", final.TipoDocumento,
		"confidence", final.Confianza,
		"chunks_ok", len(results),
		"chunks_total", len(chunks))
	return final, nil
}

// runChunk drives one chunk through prompt building, the model call with
// bounded correction retries, and verification. Returns ok=false when the
// chunk produced no usable result; the failure never escapes the chunk.
func (p *Pipeline) runChunk(ctx context.Context, chunk string, index, count int) (*analysis.Analysis, bool) {
	logger := p.logger.With("chunk", index+1, "chunks", count)

	p.setState(StateBuildingPrompt)
	prompt, err := analyze.Build(chunk, index, count, p.opts.MaxTokens)
	if err != nil {
		logger.Error("failed to build prompt", "error", err)
		return nil, false
	}

	p.setState(StateCallingModel)
	req := &providers.GenerateRequest{
		Model:       p.opts.Model,
		Prompt:      prompt,
		Temperature: p.opts.Temperature,
		Format:      "json",
		Timeout:     p.opts.CallTimeout,
	}

	p.setState(StateValidating)
	a, attempts, err := validate.RetryWithCorrection(ctx, p.client, req, p.opts.MaxRetries, logger)
	if err != nil {
		var schemaErr *validate.SchemaError
		if errors.As(err, &schemaErr) {
			logger.Error("chunk failed validation, marking as missing",
				"attempts", schemaErr.Attempts,
				"reason", schemaErr.Reason)
		}
		return nil, false
	}
	logger.Info("chunk analyzed", "attempts", attempts)

	p.setState(StateVerifying)
	a = verify.NormalizeFacts(a)
	if !p.opts.SkipVerification {
		a = verify.Postprocess(a, chunk, p.opts.Verify)
	}
	return a, true
}

// consolidateResults merges the per-chunk analyses, falling back to the
// degraded document-level Analysis when no chunk produced a usable result.
func (p *Pipeline) consolidateResults(results []ChunkResult, totalChunks int) (*analysis.Analysis, error) {
	if len(results) == 0 {
		p.logger.Error("no chunk produced a valid analysis", "chunks", totalChunks)
		return analysis.Degraded(
			"Análisis no disponible: error de validación",
			fmt.Sprintf("Ninguno de los %d fragmento(s) produjo un análisis válido tras agotar los reintentos", totalChunks),
		), nil
	}

	partials := make([]analysis.Analysis, len(results))
	for i, r := range results {
		partials[i] = *r.Analysis
	}
	if missing := totalChunks - len(results); missing > 0 {
		partials[0].Notas = append(partials[0].Notas, fmt.Sprintf(
			"⚠️ %d de %d fragmentos no produjeron análisis válido; resultado parcial", missing, totalChunks))
	}

	final, err := consolidate.Consolidate(partials, p.opts.Consolidate)
	if err != nil {
		return nil, fmt.Errorf("consolidation failed: %w", err)
	}
	return final, nil
}

// refineType applies the keyword classifier over the full text. The type and
// confidence only change when the refinement disagrees with the model.
func (p *Pipeline) refineType(a *analysis.Analysis, fullText string) {
	refined, conf := classify.Refine(a.TipoDocumento, fullText)
	if refined != a.TipoDocumento {
		p.logger.Info("document type refined",
			"from", a.TipoDocumento,
			"to", refined,
			"confidence", conf)
		a.TipoDocumento = refined
		a.Confianza = conf
	}
}
