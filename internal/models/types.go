package models

import (
	"fmt"
	"strings"
)

// StandardRow is one catalog entry. Text and Vector are only set on embedded rows.
type StandardRow struct {
	Code        string    `json:"code" description:"Standard code, unique within its scope"`
	Description string    `json:"description" description:"Standard description"`
	Curriculum  string    `json:"curriculum" description:"Curriculum tag (top-level folder)"`
	SubjectKey  string    `json:"subjectKey" description:"Subject tag (document name)"`
	Grade       string    `json:"grade" description:"Grade label"`
	Text        string    `json:"text,omitempty" description:"Normalized string that was embedded"`
	Vector      []float32 `json:"vector,omitempty" description:"Embedding of Text"`
}

// Scope is the (curriculum, subject, grade) partition a request targets.
type Scope struct {
	Curriculum string
	Subject    string
	Grade      string
}

// ComposeText builds the exact string that gets embedded for a row.
// It must stay byte-for-byte reproducible from the other fields.
func (r StandardRow) ComposeText() string {
	return strings.Join([]string{
		r.Curriculum,
		r.SubjectKey,
		r.Grade,
		r.Code,
		CollapseWhitespace(r.Description),
	}, " | ")
}

// QueryText builds the scope-tagged string embedded for a topic query.
func QueryText(scope Scope, topic string) string {
	return strings.Join([]string{
		scope.Curriculum,
		scope.Subject,
		scope.Grade,
		CollapseWhitespace(topic),
	}, " | ")
}

// CollapseWhitespace trims s and replaces every whitespace run with a single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ScoredCandidate is a row with request-scoped scores attached. Never persisted.
type ScoredCandidate struct {
	StandardRow
	ScoreRecall float64  `json:"scoreRecall"`
	ScoreLLM    *float64 `json:"scoreLLM,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// JudgeScore returns the reranker score, or 0 when the candidate was never judged.
func (c ScoredCandidate) JudgeScore() float64 {
	if c.ScoreLLM == nil {
		return 0
	}
	return *c.ScoreLLM
}

// GeneratorContext is what gets handed to the lesson content generator.
type GeneratorContext struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
}

const nonEchoInstruction = "Align the lesson with this standard. Do not quote the standard code or description verbatim in the generated content."

// NewGeneratorContext builds the hand-off for a resolved standard.
func NewGeneratorContext(row StandardRow) GeneratorContext {
	return GeneratorContext{
		Code:        row.Code,
		Description: row.Description,
		Instruction: nonEchoInstruction,
	}
}

// Prompt renders the hand-off as a context block for the generator prompt.
func (g GeneratorContext) Prompt() string {
	return fmt.Sprintf("Standard %s: %s\n%s", g.Code, g.Description, g.Instruction)
}
