package setup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/config"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/embedding"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/llm"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/llm/bedrock"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/llm/gpt"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/rerank"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/retriever"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/selection"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/store"
	"github.com/rs/zerolog"
)

type Dependencies struct {
	Selector  *selection.Selector
	Store     *store.Store
	Retrieval *config.RetrievalConfig
	Logger    *zerolog.Logger
	Config    *Config
}

func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	retrievalCfg, err := LoadRetrieval(cfg, logger)
	if err != nil {
		return nil, err
	}

	embedder, err := NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	llmClient, err := createLLMClient(ctx, cfg.JudgeProvider, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create judge client: %w", err)
	}

	judge, err := rerank.NewRelevanceJudge(retrievalCfg.Judge, llmClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build relevance judge: %w", err)
	}

	indexStore := store.New(store.Options{
		LocalPath:  cfg.IndexPath,
		RemotePath: cfg.IndexRemotePath,
	}, logger)

	selector := selection.NewSelector(
		indexStore,
		retriever.New(embedder, retriever.OptionsFromConfig(retrievalCfg), logger),
		rerank.NewReranker(judge, retrievalCfg.RerankTopK, logger),
		selection.Policy{
			AcceptThreshold: retrievalCfg.AcceptThreshold,
			ShortlistSize:   retrievalCfg.ShortlistSize,
		},
		logger,
	)

	return &Dependencies{
		Selector:  selector,
		Store:     indexStore,
		Retrieval: retrievalCfg,
		Logger:    logger,
		Config:    cfg,
	}, nil
}

// LoadRetrieval reads the retrieval policy. A missing file at the default
// path falls back to the built-in policy; an explicit path must exist.
func LoadRetrieval(cfg *Config, logger *zerolog.Logger) (*config.RetrievalConfig, error) {
	retrievalCfg, err := config.LoadRetrievalConfig(cfg.RetrievalConfigPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cfg.RetrievalConfigPath != config.DefaultRetrievalConfigPath {
			return nil, fmt.Errorf("failed to load retrieval config: %w", err)
		}
		logger.Warn().Str("path", cfg.RetrievalConfigPath).Msg("Retrieval config not found, using defaults")
		retrievalCfg = config.Default()
	}

	if cfg.AcceptThreshold > 0 {
		retrievalCfg.AcceptThreshold = cfg.AcceptThreshold
		if err := retrievalCfg.Validate(); err != nil {
			return nil, err
		}
	}
	return retrievalCfg, nil
}

// NewEmbedder builds the embedding oracle shared by the index builder and the
// query path; both must use the same model.
func NewEmbedder(ctx context.Context, cfg *Config) (embedding.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.OpenAIKey, cfg.EmbeddingModelID, cfg.EmbeddingDimensions)
	case "bedrock", "":
		return embedding.NewBedrockEmbedder(ctx, cfg.AWSRegion, cfg.EmbeddingModelID, cfg.EmbeddingDimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}

func createLLMClient(ctx context.Context, provider string, cfg *Config) (llm.LLMClient, error) {
	switch provider {
	case "bedrock":
		return bedrock.NewClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID)
	case "openai":
		return gpt.NewClient(cfg.OpenAIKey, cfg.OpenAIModelID)
	default:
		return bedrock.NewClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID)
	}
}
