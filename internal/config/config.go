package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	// Defaults are registered per leaf key so a config file can override a
	// single value without erasing the rest of its section.
	defaults := DefaultConfig()
	viper.SetDefault("ollama.endpoint", defaults.Ollama.Endpoint)
	viper.SetDefault("ollama.model", defaults.Ollama.Model)
	viper.SetDefault("ollama.temperature", defaults.Ollama.Temperature)
	viper.SetDefault("ollama.max_tokens", defaults.Ollama.MaxTokens)
	viper.SetDefault("ollama.timeout_seconds", defaults.Ollama.TimeoutSeconds)
	viper.SetDefault("ollama.health_timeout_seconds", defaults.Ollama.HealthTimeoutSeconds)
	viper.SetDefault("ollama.max_retries", defaults.Ollama.MaxRetries)
	viper.SetDefault("chunking.max_words", defaults.Chunking.MaxWords)
	viper.SetDefault("chunking.overlap_words", defaults.Chunking.OverlapWords)
	viper.SetDefault("chunking.inline_threshold_words", defaults.Chunking.InlineThresholdWords)
	viper.SetDefault("verification.similarity_threshold", defaults.Verification.SimilarityThreshold)
	viper.SetDefault("verification.category_penalty", defaults.Verification.CategoryPenalty)
	viper.SetDefault("verification.conflict_penalty", defaults.Verification.ConflictPenalty)
	viper.SetDefault("verification.completeness_cap", defaults.Verification.CompletenessCap)
	viper.SetDefault("history.path", defaults.History.Path)

	// Environment variables with LEXDOC_ prefix
	viper.SetEnvPrefix("LEXDOC")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.lexdoc")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# lexdoc configuration
# The ollama endpoint must be a localhost address: document text never leaves
# this machine.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
