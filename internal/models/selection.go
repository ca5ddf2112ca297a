package models

import (
	"errors"
	"strings"
)

type OutcomeStatus string

const (
	StatusResolved    OutcomeStatus = "resolved"
	StatusNeedsChoice OutcomeStatus = "needs_choice"
)

type SelectionMethod string

const (
	MethodAuto     SelectionMethod = "auto"
	MethodOverride SelectionMethod = "override"
)

// SelectionRequest is the retrieval/selection input shared by every surface.
type SelectionRequest struct {
	RequestID    string `json:"request_id,omitempty" description:"Caller supplied id, generated when empty"`
	Curriculum   string `json:"curriculum" description:"Curriculum tag, e.g. nys or england"`
	Subject      string `json:"subject" description:"Subject key, e.g. Mathematics"`
	Grade        string `json:"grade" description:"Grade label, e.g. Grade 4"`
	Topic        string `json:"topic" description:"Free-text teaching topic"`
	OverrideCode string `json:"override_code,omitempty" description:"Exact standard code; skips scoring"`
}

var ErrEmptyTopic = errors.New("topic is required when no override code is given")

func (r SelectionRequest) Validate() error {
	if strings.TrimSpace(r.OverrideCode) == "" && strings.TrimSpace(r.Topic) == "" {
		return ErrEmptyTopic
	}
	return nil
}

func (r SelectionRequest) Scope() Scope {
	return Scope{
		Curriculum: r.Curriculum,
		Subject:    r.Subject,
		Grade:      r.Grade,
	}
}

// Outcome is either a resolved standard or a shortlist that needs a human choice.
type Outcome struct {
	RequestID        string            `json:"request_id"`
	Status           OutcomeStatus     `json:"status"`
	NeedsChoice      bool              `json:"needs_choice"`
	Method           SelectionMethod   `json:"method,omitempty"`
	Standard         *StandardRow      `json:"standard,omitempty"`
	Shortlist        []ScoredCandidate `json:"shortlist"`
	GeneratorContext *GeneratorContext `json:"generator_context,omitempty"`
}

func Resolved(row StandardRow, method SelectionMethod) Outcome {
	row = row.WithoutEmbedding()
	gen := NewGeneratorContext(row)
	return Outcome{
		Status:           StatusResolved,
		Method:           method,
		Standard:         &row,
		Shortlist:        []ScoredCandidate{},
		GeneratorContext: &gen,
	}
}

func NeedsChoice(shortlist []ScoredCandidate) Outcome {
	out := make([]ScoredCandidate, 0, len(shortlist))
	for _, c := range shortlist {
		c.StandardRow = c.StandardRow.WithoutEmbedding()
		out = append(out, c)
	}
	return Outcome{
		Status:      StatusNeedsChoice,
		NeedsChoice: true,
		Shortlist:   out,
	}
}

// WithoutEmbedding drops the derived text and vector before a row leaves the process.
func (r StandardRow) WithoutEmbedding() StandardRow {
	r.Text = ""
	r.Vector = nil
	return r
}
