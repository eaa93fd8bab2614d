package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Ollama.Endpoint != "http://localhost:11434" {
		t.Errorf("Ollama.Endpoint = %q, want localhost default", cfg.Ollama.Endpoint)
	}
	if cfg.Ollama.Model != "llama3.2:3b" {
		t.Errorf("Ollama.Model = %q, want llama3.2:3b", cfg.Ollama.Model)
	}
	if cfg.Ollama.MaxRetries != 2 {
		t.Errorf("Ollama.MaxRetries = %d, want 2", cfg.Ollama.MaxRetries)
	}
	if cfg.Chunking.MaxWords != 2500 || cfg.Chunking.OverlapWords != 200 {
		t.Errorf("Chunking = %+v, want 2500/200", cfg.Chunking)
	}
	if cfg.Chunking.InlineThresholdWords != 3000 {
		t.Errorf("InlineThresholdWords = %d, want 3000", cfg.Chunking.InlineThresholdWords)
	}
	if cfg.Verification.SimilarityThreshold != 0.90 {
		t.Errorf("SimilarityThreshold = %v, want 0.90", cfg.Verification.SimilarityThreshold)
	}
	if cfg.Verification.CompletenessCap != 0.5 {
		t.Errorf("CompletenessCap = %v, want 0.5", cfg.Verification.CompletenessCap)
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := DefaultConfig()
	opts := cfg.PipelineOptions()

	if opts.Model != cfg.Ollama.Model {
		t.Errorf("Model = %q, want %q", opts.Model, cfg.Ollama.Model)
	}
	if opts.Temperature != cfg.Ollama.Temperature {
		t.Errorf("Temperature = %v, want %v", opts.Temperature, cfg.Ollama.Temperature)
	}
	if opts.CallTimeout != 60*time.Second {
		t.Errorf("CallTimeout = %v, want 60s", opts.CallTimeout)
	}
	if opts.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", opts.MaxRetries)
	}
	if opts.ChunkMaxWords != 2500 || opts.ChunkOverlap != 200 || opts.InlineThreshold != 3000 {
		t.Errorf("chunking options = %d/%d/%d, want 2500/200/3000",
			opts.ChunkMaxWords, opts.ChunkOverlap, opts.InlineThreshold)
	}
	if opts.Verify.SimilarityThreshold != 0.90 {
		t.Errorf("Verify.SimilarityThreshold = %v, want 0.90", opts.Verify.SimilarityThreshold)
	}
	if opts.Consolidate.ConflictPenalty != 0.10 {
		t.Errorf("Consolidate.ConflictPenalty = %v, want 0.10", opts.Consolidate.ConflictPenalty)
	}
}

func TestManagerLoadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `ollama:
  model: mistral:7b
  temperature: 0.1
chunking:
  max_words: 1000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	cfg := cm.Get()
	if cfg.Ollama.Model != "mistral:7b" {
		t.Errorf("Ollama.Model = %q, want mistral:7b", cfg.Ollama.Model)
	}
	if cfg.Ollama.Temperature != 0.1 {
		t.Errorf("Ollama.Temperature = %v, want 0.1", cfg.Ollama.Temperature)
	}
	if cfg.Chunking.MaxWords != 1000 {
		t.Errorf("Chunking.MaxWords = %d, want 1000", cfg.Chunking.MaxWords)
	}
	// Unset keys keep their defaults.
	if cfg.Chunking.OverlapWords != 200 {
		t.Errorf("Chunking.OverlapWords = %d, want default 200", cfg.Chunking.OverlapWords)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	out := string(data)
	if !strings.HasPrefix(out, "# lexdoc configuration") {
		t.Error("WriteDefault() output missing the header comment")
	}
	for _, want := range []string{"ollama:", "chunking:", "verification:", "history:", "localhost:11434"} {
		if !strings.Contains(out, want) {
			t.Errorf("WriteDefault() output missing %q", want)
		}
	}
}
