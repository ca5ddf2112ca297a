package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/config"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/llm"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
	"github.com/rs/zerolog"
)

const ParseErrorReason = "parse error"

// Judgment is one relevance verdict on the 0-6 scale.
type Judgment struct {
	Score      float64
	Reason     string
	ParseError bool
}

type promptData struct {
	Topic       string
	Code        string
	Description string
	MaxScore    int
}

type judgeResponse struct {
	Score  json.RawMessage `json:"score"`
	Reason string          `json:"reason"`
}

// RelevanceJudge asks an LLM how well one standard covers a topic.
type RelevanceJudge struct {
	promptTemplate *template.Template
	modelConfig    config.ModelConfig
	llmClient      llm.LLMClient
	logger         *zerolog.Logger
}

func NewRelevanceJudge(cfg config.JudgeConfig, llmClient llm.LLMClient, logger *zerolog.Logger) (*RelevanceJudge, error) {
	tmpl, err := template.New("relevance").Option("missingkey=error").Parse(cfg.Prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse relevance prompt template: %w", err)
	}

	return &RelevanceJudge{
		promptTemplate: tmpl,
		modelConfig:    cfg.Model,
		llmClient:      llmClient,
		logger:         logger,
	}, nil
}

// Judge scores row against topic. Unparsable replies come back as a zero
// score with ParseError set; only transport failures return an error.
func (j *RelevanceJudge) Judge(ctx context.Context, topic string, row models.StandardRow) (Judgment, error) {
	start := time.Now()

	prompt, err := j.buildPrompt(topic, row)
	if err != nil {
		return Judgment{}, err
	}

	request := llm.LLMRequest{
		Prompt:      prompt,
		MaxTokens:   j.modelConfig.MaxTokens,
		Temperature: j.modelConfig.Temperature,
	}

	var resp *llm.LLMResponse
	if j.modelConfig.Retry {
		resp, err = j.llmClient.InvokeModelWithRetry(ctx, request)
	} else {
		resp, err = j.llmClient.InvokeModel(ctx, request)
	}
	if err != nil {
		return Judgment{}, fmt.Errorf("relevance judge call for %s: %w", row.Code, err)
	}

	judgment, err := parseJudgment(resp.Content)
	if err != nil {
		j.logger.Warn().
			Err(err).
			Str("code", row.Code).
			Str("content", resp.Content).
			Bool("truncated", resp.Truncated()).
			Msg("unparsable judge response")
		return Judgment{Score: 0, Reason: ParseErrorReason, ParseError: true}, nil
	}

	j.logger.Debug().
		Str("code", row.Code).
		Float64("score", judgment.Score).
		Dur("duration", time.Since(start)).
		Msg("candidate judged")

	return judgment, nil
}

func (j *RelevanceJudge) buildPrompt(topic string, row models.StandardRow) (string, error) {
	var buf bytes.Buffer
	err := j.promptTemplate.Execute(&buf, promptData{
		Topic:       models.CollapseWhitespace(topic),
		Code:        row.Code,
		Description: row.Description,
		MaxScore:    config.MaxJudgeScore,
	})
	if err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}
	return buf.String(), nil
}

// parseJudgment accepts a JSON object whose score is a number, or a string
// holding a number, within [0, MaxJudgeScore].
func parseJudgment(content string) (Judgment, error) {
	var resp judgeResponse
	if err := json.Unmarshal([]byte(stripMarkdownCodeBlock(content)), &resp); err != nil {
		return Judgment{}, err
	}
	if len(resp.Score) == 0 || string(resp.Score) == "null" {
		return Judgment{}, fmt.Errorf("missing score")
	}

	raw := string(resp.Score)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Judgment{}, fmt.Errorf("score %s is not a number", resp.Score)
	}
	if math.IsNaN(score) || score < 0 || score > config.MaxJudgeScore {
		return Judgment{}, fmt.Errorf("score %v outside [0, %d]", score, config.MaxJudgeScore)
	}

	return Judgment{Score: score, Reason: strings.TrimSpace(resp.Reason)}, nil
}

// stripMarkdownCodeBlock removes a surrounding ``` fence if present.
func stripMarkdownCodeBlock(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	firstNewline := strings.Index(content, "\n")
	if firstNewline == -1 {
		return content
	}
	closing := strings.LastIndex(content, "```")
	if closing <= firstNewline {
		return content
	}
	return strings.TrimSpace(content[firstNewline+1 : closing])
}
