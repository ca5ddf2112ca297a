package llm

type LLMRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

type LLMResponse struct {
	Content string
	// StopReason is provider specific: "end_turn"/"max_tokens" on Claude, "stop"/"length" on OpenAI.
	StopReason string
}

// Truncated reports whether the model stopped on its token budget.
func (r *LLMResponse) Truncated() bool {
	return r.StopReason == "max_tokens" || r.StopReason == "length"
}
