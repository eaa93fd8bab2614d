package config

import "github.com/mhdc11/Proyecto-IA-Sinensia/internal/providers"

// DefaultConfig returns the configuration used when no file or environment
// overrides are present. Values are tuned for a small local model on modest
// hardware.
func DefaultConfig() *Config {
	return &Config{
		Ollama: OllamaConfig{
			Endpoint:             providers.DefaultOllamaEndpoint,
			Model:                "llama3.2:3b",
			Temperature:          0.2,
			MaxTokens:            8000,
			TimeoutSeconds:       60,
			HealthTimeoutSeconds: 3,
			MaxRetries:           2,
		},
		Chunking: ChunkingConfig{
			MaxWords:             2500,
			OverlapWords:         200,
			InlineThresholdWords: 3000,
		},
		Verification: VerificationConfig{
			SimilarityThreshold: 0.90,
			CategoryPenalty:     0.2,
			ConflictPenalty:     0.10,
			CompletenessCap:     0.5,
		},
		History: HistoryConfig{
			Path: "", // resolved to ~/.lexdoc/history.db by the CLI
		},
	}
}
