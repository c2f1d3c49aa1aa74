// Package config provides configuration for the Recall engine.
// Settings load from environment variables with the RECALL_ prefix; weight
// profiles load from YAML files and can be hot-reloaded.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings for the engine and its stores.
type Config struct {
	// DataPath is the directory holding the SQLite database.
	DataPath string `env:"RECALL_DATA_PATH" envDefault:"./data"`

	// SemanticDSN is the PostgreSQL connection string for the semantic
	// search index. Empty disables semantic search.
	SemanticDSN string `env:"RECALL_SEMANTIC_DSN"`

	// WeightProfilePath points to a YAML weight profile. Empty uses the
	// built-in defaults.
	WeightProfilePath string `env:"RECALL_WEIGHT_PROFILE"`

	// WatchWeightProfile enables hot reload of the weight profile on change.
	WatchWeightProfile bool `env:"RECALL_WATCH_WEIGHT_PROFILE" envDefault:"false"`

	// MaxSummaryTokens is the context summary token budget.
	MaxSummaryTokens int `env:"RECALL_MAX_SUMMARY_TOKENS" envDefault:"2000"`

	// TokenEstimator selects the estimator: "heuristic" or "tiktoken".
	TokenEstimator string `env:"RECALL_TOKEN_ESTIMATOR" envDefault:"heuristic"`

	// SemanticRateLimit is the per-second ceiling on semantic queries.
	SemanticRateLimit float64 `env:"RECALL_SEMANTIC_RATE_LIMIT" envDefault:"10"`

	// OllamaURL is the base URL of the Ollama server used for embeddings.
	OllamaURL string `env:"RECALL_OLLAMA_URL" envDefault:"http://localhost:11434"`

	// EmbedModel is the Ollama embedding model name.
	EmbedModel string `env:"RECALL_EMBED_MODEL" envDefault:"nomic-embed-text"`

	// EmbedDim is the embedding vector length produced by EmbedModel. It
	// must match the dimension the semantic index table was created with.
	EmbedDim int `env:"RECALL_EMBED_DIM" envDefault:"768"`

	// LogLevel sets the zerolog level name.
	LogLevel string `env:"RECALL_LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}

	if cfg.TokenEstimator != "heuristic" && cfg.TokenEstimator != "tiktoken" {
		return nil, fmt.Errorf("config: unknown token estimator %q", cfg.TokenEstimator)
	}
	if cfg.MaxSummaryTokens <= 0 {
		return nil, fmt.Errorf("config: max summary tokens must be positive")
	}
	if cfg.EmbedDim <= 0 {
		return nil, fmt.Errorf("config: embedding dimension must be positive")
	}

	return cfg, nil
}
