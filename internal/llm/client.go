package llm

import (
	"context"
)

//go:generate mockgen -source=client.go -destination=mocks/client_mock.go -package=mocks

// LLMClient is the chat-completion boundary used by the relevance judge.
type LLMClient interface {
	InvokeModel(ctx context.Context, request LLMRequest) (*LLMResponse, error)
	InvokeModelWithRetry(ctx context.Context, request LLMRequest) (*LLMResponse, error)
}
