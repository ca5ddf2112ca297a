package embedding

import (
	"context"
	"fmt"
)

//go:generate mockgen -source=embedder.go -destination=mocks/embedder_mock.go -package=mocks

// Embedder turns texts into vectors. Implementations must return exactly one
// vector per input text, in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedText embeds a single string through e.
func EmbedText(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vectors))
	}
	if len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}
	return vectors[0], nil
}
