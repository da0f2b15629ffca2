package config

import (
	"path/filepath"
	"time"

	"github.com/ziadkadry99/docvault/internal/chunker"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "docvault.yml"

// embeddingDefaults maps each embedding provider to its default model and
// vector size.
var embeddingDefaults = map[ProviderType]struct {
	Model      string
	Dimensions int
}{
	ProviderOllama: {Model: "nomic-embed-text", Dimensions: 768},
	ProviderOpenAI: {Model: "text-embedding-3-small", Dimensions: 1536},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProvider:         ProviderOllama,
		DefaultModel:        "llama3",
		EmbeddingProvider:   ProviderOllama,
		EmbeddingModel:      embeddingDefaults[ProviderOllama].Model,
		EmbeddingDimensions: embeddingDefaults[ProviderOllama].Dimensions,
		ChunkSize:           chunker.DefaultChunkSize,
		ChunkOverlap:        chunker.DefaultChunkOverlap,
		TopK:                10,
		AllowedFormats:      []string{"pdf"},
		DataDir:             ".docvault",
		Server: ServerConfig{
			Port:           5000,
			RequestTimeout: 2 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// IndexDir is where the vector index snapshot is kept.
func (c *Config) IndexDir() string {
	return filepath.Join(c.DataDir, "index")
}

// DBPath is the SQLite database holding the audit trail.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "docvault.db")
}
