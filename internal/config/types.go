package config

import "time"

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level docvault configuration, corresponding to docvault.yml.
type Config struct {
	LLMProvider         ProviderType `yaml:"llm_provider" koanf:"llm_provider"`
	DefaultModel        string       `yaml:"default_model" koanf:"default_model"`
	OllamaHost          string       `yaml:"ollama_host" koanf:"ollama_host"`
	EmbeddingProvider   ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel      string       `yaml:"embedding_model" koanf:"embedding_model"`
	EmbeddingDimensions int          `yaml:"embedding_dimensions" koanf:"embedding_dimensions"`
	ChunkSize           int          `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap        int          `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	TopK                int          `yaml:"top_k" koanf:"top_k"`
	AllowedFormats      []string     `yaml:"allowed_formats" koanf:"allowed_formats"`
	DataDir             string       `yaml:"data_dir" koanf:"data_dir"`
	LLMRPM              int          `yaml:"llm_rpm" koanf:"llm_rpm"`
	Server              ServerConfig `yaml:"server" koanf:"server"`
	Log                 LogConfig    `yaml:"log" koanf:"log"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port            int           `yaml:"port" koanf:"port"`
	AllowAllOrigins bool          `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	AdminToken      string        `yaml:"admin_token,omitempty" koanf:"admin_token"`
	RequestTimeout  time.Duration `yaml:"request_timeout" koanf:"request_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
