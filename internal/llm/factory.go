package llm

import (
	"fmt"
	"os"
)

// NewProvider creates a new LLM provider based on the given provider type.
// Supported provider types: "ollama", "openai". For ollama, host defaults to
// OLLAMA_HOST and then http://localhost:11434.
func NewProvider(providerType, model, host string) (Provider, error) {
	switch providerType {
	case "ollama":
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, model, host), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
