package config

// RetrievalConfig is the retrieval and selection policy.
type RetrievalConfig struct {
	VectorWeight    float64       `yaml:"vector_weight"`
	LexicalWeight   float64       `yaml:"lexical_weight"`
	RecallTopK      int           `yaml:"recall_top_k"`
	RerankTopK      int           `yaml:"rerank_top_k"`
	ShortlistSize   int           `yaml:"shortlist_size"`
	AcceptThreshold float64       `yaml:"accept_threshold"`
	Lexical         LexicalConfig `yaml:"lexical"`
	Judge           JudgeConfig   `yaml:"judge"`
}

// LexicalConfig tunes the token-overlap score.
type LexicalConfig struct {
	TokenWeight      float64 `yaml:"token_weight"`
	LengthPenalty    float64 `yaml:"length_penalty"`
	LengthPenaltyCap int     `yaml:"length_penalty_cap"`
}

// JudgeConfig holds the relevance judge prompt and model parameters.
// Prompt is a text/template over .Topic, .Code, .Description and .MaxScore.
type JudgeConfig struct {
	Prompt string      `yaml:"prompt"`
	Model  ModelConfig `yaml:"model"`
}

type ModelConfig struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Retry       bool    `yaml:"retry"`
}
