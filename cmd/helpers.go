package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/docvault/internal/audit"
	"github.com/ziadkadry99/docvault/internal/chunker"
	"github.com/ziadkadry99/docvault/internal/config"
	"github.com/ziadkadry99/docvault/internal/db"
	"github.com/ziadkadry99/docvault/internal/docstore"
	"github.com/ziadkadry99/docvault/internal/embeddings"
	"github.com/ziadkadry99/docvault/internal/llm"
	"github.com/ziadkadry99/docvault/internal/loader"
	"github.com/ziadkadry99/docvault/internal/logging"
	"github.com/ziadkadry99/docvault/internal/metrics"
	"github.com/ziadkadry99/docvault/internal/rag"
	"github.com/ziadkadry99/docvault/internal/vectordb"
)

// app bundles the components every command builds from config.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	embedder embeddings.Embedder
	provider llm.Provider
	models   llm.ModelLister
	index    *vectordb.ChromemIndex
	database *db.DB
	audit    *audit.Store
	store    *docstore.Store
	pipeline *rag.Pipeline
}

// newApp loads config and wires the index, audit trail, document store and
// RAG pipeline. The index snapshot under the data dir is loaded if present.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if verbose {
		logCfg.Level = "debug"
	}
	logger := logging.New(logCfg)

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	base, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	provider := llm.NewRateLimitedProvider(base, cfg.LLMRPM)

	index, err := vectordb.NewChromemIndex(embedder, vectordb.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating vector index: %w", err)
	}
	if err := index.Load(ctx, cfg.IndexDir()); err != nil && !errors.Is(err, vectordb.ErrNoSnapshot) {
		return nil, fmt.Errorf("loading vector index from %s: %w", cfg.IndexDir(), err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	auditStore := audit.NewStore(database)

	m := metrics.New()
	store := docstore.New(index, embedder,
		docstore.WithSplitter(chunker.New(
			chunker.WithChunkSize(cfg.ChunkSize),
			chunker.WithOverlap(cfg.ChunkOverlap),
		)),
		docstore.WithLoader(loader.New(cfg.AllowedFormats)),
		docstore.WithAuditor(auditStore),
		docstore.WithMetrics(m),
		docstore.WithLogger(logger),
	)
	pipeline := rag.New(index, embedder, provider,
		rag.WithTopK(cfg.TopK),
		rag.WithMetrics(m),
		rag.WithLogger(logger),
	)

	logger.Debug().
		Str("embedder", embedder.Name()).
		Str("llm", provider.Name()).
		Int("chunks", index.Count()).
		Msg("docvault initialised")

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		embedder: embedder,
		provider: provider,
		models:   modelLister(base),
		index:    index,
		database: database,
		audit:    auditStore,
		store:    store,
		pipeline: pipeline,
	}, nil
}

// persist writes the index snapshot to the data dir.
func (a *app) persist(ctx context.Context) error {
	if err := a.index.Persist(ctx, a.cfg.IndexDir()); err != nil {
		return fmt.Errorf("saving vector index: %w", err)
	}
	return nil
}

func (a *app) Close() error {
	return a.database.Close()
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel), "", cfg.EmbeddingDimensions), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, cfg.EmbeddingDimensions, cfg.OllamaHost), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.EmbeddingProvider)
	}
}

// createLLMProviderFromConfig creates an LLM provider based on config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	host := ""
	if cfg.LLMProvider == config.ProviderOllama {
		host = cfg.OllamaHost
	}
	return llm.NewProvider(string(cfg.LLMProvider), cfg.DefaultModel, host)
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `docvault init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// modelLister returns p as an llm.ModelLister when it can list models.
func modelLister(p llm.Provider) llm.ModelLister {
	if ml, ok := p.(llm.ModelLister); ok {
		return ml
	}
	return nil
}


func requireUser(user string) error {
	if user == "" {
		return fmt.Errorf("--user is required")
	}
	return nil
}
