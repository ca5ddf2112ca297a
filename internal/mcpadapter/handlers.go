package mcpadapter

import (
	"context"

	"github.com/google/uuid"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type Selector interface {
	Select(ctx context.Context, req models.SelectionRequest, baseURL string) (models.Outcome, error)
}

type Readiness interface {
	Ready() bool
}

// SelectInput is the MCP tool input schema (matches HTTP API field names).
type SelectInput struct {
	RequestID    string `json:"request_id,omitempty" jsonschema:"optional caller supplied request id"`
	Curriculum   string `json:"curriculum" jsonschema:"curriculum tag, e.g. nys or england"`
	Subject      string `json:"subject" jsonschema:"subject, e.g. Mathematics"`
	Grade        string `json:"grade" jsonschema:"grade label, e.g. Grade 4"`
	Topic        string `json:"topic" jsonschema:"free-text teaching topic"`
	OverrideCode string `json:"override_code,omitempty" jsonschema:"exact standard code picked by the user; skips scoring"`
}

type IndexStatusInput struct{}

type IndexStatus struct {
	Ready bool `json:"ready" jsonschema:"whether an embedded index snapshot is loaded"`
}

// NewSelectHandler returns a tool handler that uses the given selector.
// Pass the returned function to mcp.AddTool.
func NewSelectHandler(selector Selector, baseURL string) func(context.Context, *mcp.CallToolRequest, SelectInput) (*mcp.CallToolResult, models.Outcome, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SelectInput) (*mcp.CallToolResult, models.Outcome, error) {
		return SelectStandard(ctx, selector, baseURL, input)
	}
}

// SelectStandard runs retrieval and selection for one topic.
func SelectStandard(
	ctx context.Context,
	selector Selector,
	baseURL string,
	input SelectInput,
) (*mcp.CallToolResult, models.Outcome, error) {
	req := models.SelectionRequest{
		RequestID:    input.RequestID,
		Curriculum:   input.Curriculum,
		Subject:      input.Subject,
		Grade:        input.Grade,
		Topic:        input.Topic,
		OverrideCode: input.OverrideCode,
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	outcome, err := selector.Select(ctx, req, baseURL)
	return nil, outcome, err
}

func NewIndexStatusHandler(index Readiness) func(context.Context, *mcp.CallToolRequest, IndexStatusInput) (*mcp.CallToolResult, IndexStatus, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IndexStatusInput) (*mcp.CallToolResult, IndexStatus, error) {
		return nil, IndexStatus{Ready: index.Ready()}, nil
	}
}
