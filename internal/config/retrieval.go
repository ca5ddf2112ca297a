package config

import (
	"errors"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

const DefaultRetrievalConfigPath = "configs/retrieval.yaml"

// MaxJudgeScore is the top of the relevance judge scale.
const MaxJudgeScore = 6

var ErrInvalidConfig = errors.New("invalid retrieval config")

const DefaultJudgePrompt = `You are matching a teaching topic to a curriculum standard.

Topic: {{.Topic}}
Standard code: {{.Code}}
Standard description: {{.Description}}

Rate how well the standard covers the topic on an integer scale from 0 (unrelated) to {{.MaxScore}} (exact match).
Respond ONLY in JSON: {"score": <integer 0-{{.MaxScore}}>, "reason": "<one short sentence>"}`

// Default returns the policy used when no file overrides it.
func Default() *RetrievalConfig {
	cfg := &RetrievalConfig{}
	applyDefaults(cfg)
	return cfg
}

func LoadRetrievalConfig(path string) (*RetrievalConfig, error) {
	if path == "" {
		path = DefaultRetrievalConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg RetrievalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *RetrievalConfig) {
	if cfg.VectorWeight == 0 && cfg.LexicalWeight == 0 {
		cfg.VectorWeight = 0.7
		cfg.LexicalWeight = 0.3
	}
	if cfg.RecallTopK == 0 {
		cfg.RecallTopK = 25
	}
	if cfg.RerankTopK == 0 {
		cfg.RerankTopK = 12
	}
	if cfg.ShortlistSize == 0 {
		cfg.ShortlistSize = 5
	}
	if cfg.AcceptThreshold == 0 {
		cfg.AcceptThreshold = 3.5
	}
	if cfg.Lexical.TokenWeight == 0 {
		cfg.Lexical.TokenWeight = 1.0
	}
	if cfg.Lexical.LengthPenalty == 0 {
		cfg.Lexical.LengthPenalty = 0.001
	}
	if cfg.Lexical.LengthPenaltyCap == 0 {
		cfg.Lexical.LengthPenaltyCap = 300
	}
	if cfg.Judge.Prompt == "" {
		cfg.Judge.Prompt = DefaultJudgePrompt
	}
	if cfg.Judge.Model.MaxTokens == 0 {
		cfg.Judge.Model.MaxTokens = 200
	}
}

func (c *RetrievalConfig) Validate() error {
	if c.VectorWeight < 0 || c.LexicalWeight < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidConfig)
	}
	if c.VectorWeight+c.LexicalWeight <= 0 {
		return fmt.Errorf("%w: weights must sum to a positive value", ErrInvalidConfig)
	}
	if c.RecallTopK < 1 || c.RerankTopK < 1 || c.ShortlistSize < 1 {
		return fmt.Errorf("%w: recall_top_k, rerank_top_k and shortlist_size must be positive", ErrInvalidConfig)
	}
	if c.RerankTopK > c.RecallTopK {
		return fmt.Errorf("%w: rerank_top_k %d exceeds recall_top_k %d", ErrInvalidConfig, c.RerankTopK, c.RecallTopK)
	}
	if c.AcceptThreshold < 0 || c.AcceptThreshold > MaxJudgeScore {
		return fmt.Errorf("%w: accept_threshold %.2f outside [0, %d]", ErrInvalidConfig, c.AcceptThreshold, MaxJudgeScore)
	}
	if c.Lexical.TokenWeight < 0 || c.Lexical.LengthPenalty < 0 || c.Lexical.LengthPenaltyCap < 0 {
		return fmt.Errorf("%w: lexical parameters must be non-negative", ErrInvalidConfig)
	}
	if c.Judge.Model.Temperature < 0 || c.Judge.Model.Temperature > 1 {
		return fmt.Errorf("%w: judge temperature must be in [0, 1]", ErrInvalidConfig)
	}
	return nil
}
