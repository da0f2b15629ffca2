package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// defaultModels lists the chat models offered per provider; the first is the default.
var defaultModels = map[ProviderType][]string{
	ProviderOllama: {"llama3", "mistral", "phi3"},
	ProviderOpenAI: {"gpt-4o-mini", "gpt-4o"},
}

// RunWizard runs an interactive configuration wizard, saves the result to
// path, and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to docvault! Let's configure the service.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{string(ProviderOllama), string(ProviderOpenAI)},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.LLMProvider = ProviderType(providerStr)

	// 2. Default model.
	modelPrompt := promptui.Select{
		Label: "Select default chat model",
		Items: defaultModels[cfg.LLMProvider],
	}
	_, cfg.DefaultModel, err = modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}

	// 3. Embeddings follow the chat provider.
	cfg.EmbeddingProvider = cfg.LLMProvider
	d := embeddingDefaults[cfg.EmbeddingProvider]
	cfg.EmbeddingModel, cfg.EmbeddingDimensions = d.Model, d.Dimensions

	// 4. Accepted formats.
	formatsPrompt := promptui.Prompt{
		Label:   "Accepted document formats (comma-separated)",
		Default: strings.Join(cfg.AllowedFormats, ","),
	}
	formatsStr, err := formatsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("allowed formats: %w", err)
	}
	if formats := splitAndTrim(formatsStr); len(formats) > 0 {
		cfg.AllowedFormats = formats
	}

	// 5. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: cfg.DataDir,
	}
	cfg.DataDir, err = dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 6. Admin token guarding the reset endpoint.
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	cfg.Server.AdminToken = token

	if envVar := APIKeyEnvVar(cfg.LLMProvider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running docvault serve.\n", envVar)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	fmt.Println("An admin token for POST /api/documents/reset was written to the file.")
	return cfg, nil
}

func generateToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating admin token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
