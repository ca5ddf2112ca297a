package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const DefaultTitanModelID = "amazon.titan-embed-text-v2:0"

type invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// BedrockEmbedder calls a Titan text embedding model once per input text.
type BedrockEmbedder struct {
	client     invoker
	modelID    string
	dimensions int
}

func NewBedrockEmbedder(ctx context.Context, region string, modelID string, dimensions int) (*BedrockEmbedder, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return newBedrockEmbedder(bedrockruntime.NewFromConfig(cfg), modelID, dimensions), nil
}

func newBedrockEmbedder(client invoker, modelID string, dimensions int) *BedrockEmbedder {
	if modelID == "" {
		modelID = DefaultTitanModelID
	}
	return &BedrockEmbedder{
		client:     client,
		modelID:    modelID,
		dimensions: dimensions,
	}
}

func (e *BedrockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vector, err := e.embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

func (e *BedrockEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanRequest{
		InputText:  text,
		Dimensions: e.dimensions,
		Normalize:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to serialize titan request: %w", err)
	}

	output, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to invoke embedding model: %w", err)
	}

	var response titanResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedding response: %w", err)
	}
	if len(response.Embedding) == 0 {
		return nil, fmt.Errorf("embedding response has no embedding field")
	}
	return response.Embedding, nil
}
