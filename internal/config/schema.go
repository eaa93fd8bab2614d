// Package config loads and hot-reloads the application configuration. The
// pipeline never reads configuration globally: the CLI resolves a Config once
// and threads explicit option structs through every component.
package config

import (
	"time"

	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/consolidate"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/pipeline"
	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/verify"
)

// Config is the full application configuration.
type Config struct {
	Ollama       OllamaConfig       `mapstructure:"ollama" yaml:"ollama"`
	Chunking     ChunkingConfig     `mapstructure:"chunking" yaml:"chunking"`
	Verification VerificationConfig `mapstructure:"verification" yaml:"verification"`
	History      HistoryConfig      `mapstructure:"history" yaml:"history"`
}

// OllamaConfig configures the local model service and call behavior.
type OllamaConfig struct {
	Endpoint             string  `mapstructure:"endpoint" yaml:"endpoint"`
	Model                string  `mapstructure:"model" yaml:"model"`
	Temperature          float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens            int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	TimeoutSeconds       int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	HealthTimeoutSeconds int     `mapstructure:"health_timeout_seconds" yaml:"health_timeout_seconds"`
	MaxRetries           int     `mapstructure:"max_retries" yaml:"max_retries"`
}

// ChunkingConfig sizes the word windows for long documents.
type ChunkingConfig struct {
	MaxWords             int `mapstructure:"max_words" yaml:"max_words"`
	OverlapWords         int `mapstructure:"overlap_words" yaml:"overlap_words"`
	InlineThresholdWords int `mapstructure:"inline_threshold_words" yaml:"inline_threshold_words"`
}

// VerificationConfig holds the verification and consolidation tunables.
type VerificationConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	CategoryPenalty     float64 `mapstructure:"category_penalty" yaml:"category_penalty"`
	ConflictPenalty     float64 `mapstructure:"conflict_penalty" yaml:"conflict_penalty"`
	CompletenessCap     float64 `mapstructure:"completeness_cap" yaml:"completeness_cap"`
}

// HistoryConfig locates the analysis history store.
type HistoryConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// PipelineOptions converts the configuration into the explicit option struct
// the pipeline consumes.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Model:           c.Ollama.Model,
		Temperature:     c.Ollama.Temperature,
		MaxTokens:       c.Ollama.MaxTokens,
		CallTimeout:     time.Duration(c.Ollama.TimeoutSeconds) * time.Second,
		MaxRetries:      c.Ollama.MaxRetries,
		ChunkMaxWords:   c.Chunking.MaxWords,
		ChunkOverlap:    c.Chunking.OverlapWords,
		InlineThreshold: c.Chunking.InlineThresholdWords,
		Verify: verify.Config{
			SimilarityThreshold: c.Verification.SimilarityThreshold,
			CategoryPenalty:     c.Verification.CategoryPenalty,
			CompletenessCap:     c.Verification.CompletenessCap,
		},
		Consolidate: consolidate.Config{
			SimilarityThreshold: c.Verification.SimilarityThreshold,
			ConflictPenalty:     c.Verification.ConflictPenalty,
		},
	}
}
