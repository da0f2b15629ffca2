package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore: DOCVAULT_SERVER__PORT sets server.port.
const EnvPrefix = "DOCVAULT_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (DOCVAULT_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// A provider switch without an explicit model picks that provider's default.
	if !k.Exists("embedding_model") {
		if d, ok := embeddingDefaults[cfg.EmbeddingProvider]; ok {
			cfg.EmbeddingModel = d.Model
			if !k.Exists("embedding_dimensions") {
				cfg.EmbeddingDimensions = d.Dimensions
			}
		}
	}

	return cfg, nil
}

// envKey maps DOCVAULT_SERVER__ADMIN_TOKEN to server.admin_token.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderOllama: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.LLMProvider == "" {
		return fmt.Errorf("llm_provider is required")
	}
	if !validProviders[c.LLMProvider] {
		return fmt.Errorf("invalid llm_provider %q: must be one of openai, ollama", c.LLMProvider)
	}
	if !validProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q: must be one of openai, ollama", c.EmbeddingProvider)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("embedding_model is required")
	}
	if c.EmbeddingProvider == ProviderOllama && c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("embedding_dimensions must be positive for ollama embeddings")
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size)")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive")
	}
	if len(c.AllowedFormats) == 0 {
		return fmt.Errorf("allowed_formats must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.LLMRPM < 0 {
		return fmt.Errorf("llm_rpm must be non-negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout must be non-negative")
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
