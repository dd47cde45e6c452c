// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds every knob the memory service reads at startup.
type Config struct {
	QdrantHost string
	QdrantPort int
	DBPath     string
	Port       string
	ServerMode bool

	// UserID identifies the single local owner of conversations and memories.
	UserID string

	Credentials Credentials
	Embedding   EmbeddingConfig
	Summary     SummaryConfig
	Search      SearchConfig
}

// EmbeddingConfig selects the models used by the vector tiers.
type EmbeddingConfig struct {
	HostedModel    string
	LocalModel     string
	LocalDimension int
	// DefaultProvider is the tier callers start from when they do not name one.
	DefaultProvider string
}

// SummaryConfig configures summarization gating and model selection.
type SummaryConfig struct {
	Model            string
	MaxInputTokens   int
	MinMessages      int
	MinTokens        int
	ComplexMinTokens int
}

// SearchConfig holds the similarity floors applied to ranked results.
type SearchConfig struct {
	FloorOpenAI     float64
	FloorLocal      float64
	FloorLexical    float64
	RelativeVector  float64
	RelativeLexical float64
	DefaultLimit    int
}

// Load reads configuration from environment variables, applying defaults.
func Load() *Config {
	return &Config{
		QdrantHost: getEnv("QDRANT_HOST", "localhost"),
		QdrantPort: getEnvInt("QDRANT_PORT", 6334),
		DBPath:     getEnv("MEMORY_DB_PATH", "data/memory.db"),
		Port:       getEnv("PORT", "8080"),
		ServerMode: getEnv("SERVER_MODE", "false") == "true",
		UserID:     getEnv("LOCAL_USER_ID", "local-user"),

		Credentials: LoadCredentials(),

		Embedding: EmbeddingConfig{
			HostedModel:     getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			LocalModel:      getEnv("LOCAL_EMBEDDING_MODEL", "all-minilm"),
			LocalDimension:  getEnvInt("LOCAL_EMBEDDING_DIMENSION", 384),
			DefaultProvider: getEnv("EMBEDDINGS_PROVIDER", "openai"),
		},

		Summary: SummaryConfig{
			Model:            strings.TrimSpace(getEnv("SUMMARY_MODEL", "")),
			MaxInputTokens:   getEnvInt("SUMMARY_MAX_INPUT_TOKENS", 6000),
			MinMessages:      getEnvInt("SUMMARY_MIN_MESSAGES", 8),
			MinTokens:        getEnvInt("SUMMARY_MIN_TOKENS", 600),
			ComplexMinTokens: getEnvInt("SUMMARY_COMPLEX_MIN_TOKENS", 350),
		},

		Search: SearchConfig{
			FloorOpenAI:     getEnvFloat("SEARCH_FLOOR_OPENAI", 0.2),
			FloorLocal:      getEnvFloat("SEARCH_FLOOR_LOCAL", 0.18),
			FloorLexical:    getEnvFloat("SEARCH_FLOOR_LEXICAL", 0.35),
			RelativeVector:  getEnvFloat("SEARCH_RELATIVE_FLOOR_VECTOR", 0.75),
			RelativeLexical: getEnvFloat("SEARCH_RELATIVE_FLOOR_LEXICAL", 0.5),
			DefaultLimit:    getEnvInt("SEARCH_DEFAULT_LIMIT", 4),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
			return f
		}
	}
	return defaultValue
}
