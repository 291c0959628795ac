package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fundedai/boothchat/internal/chat"
	"github.com/fundedai/boothchat/internal/config"
	"github.com/fundedai/boothchat/internal/dispatch"
	"github.com/fundedai/boothchat/internal/embeddings"
	"github.com/fundedai/boothchat/internal/ingest"
	"github.com/fundedai/boothchat/internal/llm"
	"github.com/fundedai/boothchat/internal/vectordb"
)

// stack bundles the wired components shared by the serve, index, ask and
// cards commands.
type stack struct {
	cfg          *config.Config
	gateway      *llm.Gateway
	store        vectordb.Store
	ingestor     *ingest.Ingestor
	orchestrator *chat.Orchestrator
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `boothchat init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildStack wires the full component graph from the configuration.
func buildStack(cfg *config.Config) (*stack, error) {
	apiKey := ""
	if envVar := config.APIKeyEnvVar(cfg.Provider); envVar != "" {
		apiKey = os.Getenv(envVar)
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable is required for provider %s", envVar, cfg.Provider)
		}
	}

	// Ollama speaks the OpenAI wire protocol through its /v1 endpoint, so
	// both providers share one client, differing only in base URL.
	provider := llm.NewOpenAIProvider(apiKey, cfg.BaseURL, cfg.ChatModel)
	embedder := embeddings.NewOpenAIEmbedder(apiKey, cfg.BaseURL, cfg.EmbeddingModel, cfg.ExpectedDimensions())

	gateway := llm.NewGateway(provider, embedder, llm.Options{
		ChatModel:    cfg.ChatModel,
		ExpectedDims: cfg.ExpectedDimensions(),
	})

	store, err := vectordb.NewChromemStore(filepath.Join(cfg.DataDir, "vectordb"), embedder)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	dispatcher, err := dispatch.NewDispatcher(gateway, cfg.PromptDir, cfg.MaxResponseTokens)
	if err != nil {
		return nil, fmt.Errorf("loading prompts: %w", err)
	}

	return &stack{
		cfg:          cfg,
		gateway:      gateway,
		store:        store,
		ingestor:     ingest.New(cfg, gateway, store),
		orchestrator: chat.New(cfg, gateway, store, dispatcher),
	}, nil
}
