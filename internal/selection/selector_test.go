package selection

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/config"
	embeddingmocks "github.com/jamiemarshall1919/Lesson-pilot/internal/embedding/mocks"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/llm"
	llmmocks "github.com/jamiemarshall1919/Lesson-pilot/internal/llm/mocks"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/rerank"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/retriever"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/selection/mocks"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/store"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func row(curriculum, subject, grade, code, description string, vector ...float32) models.StandardRow {
	r := models.StandardRow{
		Code:        code,
		Description: description,
		Curriculum:  curriculum,
		SubjectKey:  subject,
		Grade:       grade,
		Vector:      vector,
	}
	r.Text = r.ComposeText()
	return r
}

func testIndex() []models.StandardRow {
	return []models.StandardRow{
		row("nys", "mathematics", "Grade 4", "NY-4.NF.1", "Explain fraction equivalence and recognize fractions as equal parts of a whole.", 0.9, 0.1, 0),
		row("nys", "mathematics", "Grade 4", "NY-4.OA.1", "Interpret a multiplication equation as a comparison.", 0.1, 0.9, 0),
		row("nys", "mathematics", "Grade 4", "NY-4.MD.1", "Know relative sizes of measurement units.", 0.2, 0.7, 0.1),
		row("nys", "mathematics", "Grade 3", "NY-3.NF.1", "Understand a fraction as a quantity formed by equal parts.", 0.7, 0.3, 0),
		row("nys", "social_studies_k8", "Grade 7", "7.4a", "The French Revolution and its global impact.", 0, 0, 1),
	}
}

func judged(code string, llmScore, recall float64) models.ScoredCandidate {
	score := llmScore
	return models.ScoredCandidate{
		StandardRow: row("nys", "mathematics", "Grade 4", code, "desc "+code, 1, 0, 0),
		ScoreRecall: recall,
		ScoreLLM:    &score,
		Reason:      "reason",
	}
}

var mathRequest = models.SelectionRequest{
	RequestID:  "req-1",
	Curriculum: "nys",
	Subject:    "Mathematics",
	Grade:      "Grade 4",
	Topic:      "fractions as equal parts",
}

type mockSet struct {
	index     *mocks.MockIndexSource
	retriever *mocks.MockCandidateRetriever
	reranker  *mocks.MockCandidateReranker
	selector  *Selector
}

func newMockSet(t *testing.T) mockSet {
	ctrl := gomock.NewController(t)
	m := mockSet{
		index:     mocks.NewMockIndexSource(ctrl),
		retriever: mocks.NewMockCandidateRetriever(ctrl),
		reranker:  mocks.NewMockCandidateReranker(ctrl),
	}
	m.selector = NewSelector(m.index, m.retriever, m.reranker, DefaultPolicy, newTestLogger())
	return m
}

func TestSelect_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name       string
		bestScore  float64
		wantStatus models.OutcomeStatus
	}{
		{name: "exactly at threshold auto-selects", bestScore: 3.5, wantStatus: models.StatusResolved},
		{name: "just below threshold needs choice", bestScore: 3.49, wantStatus: models.StatusNeedsChoice},
		{name: "top of scale", bestScore: 6, wantStatus: models.StatusResolved},
		{name: "zero", bestScore: 0, wantStatus: models.StatusNeedsChoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockSet(t)
			index := testIndex()
			recall := []models.ScoredCandidate{{StandardRow: index[0], ScoreRecall: 0.9}}
			ranked := []models.ScoredCandidate{
				judged("NY-4.NF.1", tt.bestScore, 0.9),
				judged("NY-4.OA.1", 1, 0.5),
			}

			m.index.EXPECT().Index(gomock.Any(), "http://origin").Return(index)
			m.retriever.EXPECT().
				Retrieve(gomock.Any(), index, mathRequest.Scope(), mathRequest.Topic).
				Return(retriever.Result{Candidates: recall, Level: retriever.LevelExact, PoolSize: 3}, nil)
			m.reranker.EXPECT().Rerank(gomock.Any(), mathRequest.Topic, recall).Return(ranked, nil)

			outcome, err := m.selector.Select(context.Background(), mathRequest, "http://origin")
			if err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			if outcome.Status != tt.wantStatus {
				t.Fatalf("expected %s, got %s", tt.wantStatus, outcome.Status)
			}
			if outcome.RequestID != "req-1" {
				t.Errorf("expected request id req-1, got %s", outcome.RequestID)
			}

			if tt.wantStatus == models.StatusResolved {
				if outcome.NeedsChoice || outcome.Standard == nil || outcome.Standard.Code != "NY-4.NF.1" {
					t.Errorf("expected resolved NY-4.NF.1, got %+v", outcome)
				}
				if outcome.Method != models.MethodAuto {
					t.Errorf("expected auto method, got %s", outcome.Method)
				}
				if outcome.GeneratorContext == nil || outcome.GeneratorContext.Code != "NY-4.NF.1" {
					t.Errorf("expected generator context, got %+v", outcome.GeneratorContext)
				}
				return
			}
			if !outcome.NeedsChoice || outcome.Standard != nil {
				t.Errorf("expected needs choice without standard, got %+v", outcome)
			}
			if len(outcome.Shortlist) != 2 {
				t.Errorf("expected shortlist of 2, got %d", len(outcome.Shortlist))
			}
		})
	}
}

func TestSelect_ShortlistBoundedAndStripped(t *testing.T) {
	m := newMockSet(t)
	index := testIndex()

	var ranked []models.ScoredCandidate
	for _, code := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		ranked = append(ranked, judged(code, 2, 0.5))
	}

	m.index.EXPECT().Index(gomock.Any(), "").Return(index)
	m.retriever.EXPECT().Retrieve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(retriever.Result{Candidates: ranked}, nil)
	m.reranker.EXPECT().Rerank(gomock.Any(), gomock.Any(), gomock.Any()).Return(ranked, nil)

	outcome, err := m.selector.Select(context.Background(), mathRequest, "")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(outcome.Shortlist) != 5 {
		t.Fatalf("expected 5 shortlisted, got %d", len(outcome.Shortlist))
	}
	for i, c := range outcome.Shortlist {
		if c.Code != ranked[i].Code {
			t.Errorf("position %d: expected %s, got %s", i, ranked[i].Code, c.Code)
		}
		if c.Vector != nil || c.Text != "" {
			t.Errorf("shortlist entry %s still carries its embedding", c.Code)
		}
	}
	if ranked[0].Vector == nil {
		t.Error("reranked input must not be modified")
	}
}

func TestSelect_EmptyIndex(t *testing.T) {
	m := newMockSet(t)
	m.index.EXPECT().Index(gomock.Any(), gomock.Any()).Return(nil)

	outcome, err := m.selector.Select(context.Background(), mathRequest, "")
	if err != nil {
		t.Fatalf("empty index must not error: %v", err)
	}
	if outcome.Status != models.StatusNeedsChoice || !outcome.NeedsChoice {
		t.Errorf("expected needs_choice, got %s", outcome.Status)
	}
	if outcome.Standard != nil {
		t.Error("must not fabricate a standard")
	}
	if outcome.Shortlist == nil || len(outcome.Shortlist) != 0 {
		t.Errorf("expected empty non-nil shortlist, got %v", outcome.Shortlist)
	}
}

func TestSelect_EmptyRecall(t *testing.T) {
	m := newMockSet(t)
	m.index.EXPECT().Index(gomock.Any(), gomock.Any()).Return(testIndex())
	m.retriever.EXPECT().Retrieve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(retriever.Result{}, nil)

	outcome, err := m.selector.Select(context.Background(), mathRequest, "")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if outcome.Status != models.StatusNeedsChoice || len(outcome.Shortlist) != 0 {
		t.Errorf("expected empty needs_choice, got %+v", outcome)
	}
}

func TestSelect_Override(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		index      []models.StandardRow
		wantStatus models.OutcomeStatus
		wantCode   string
	}{
		{name: "strict pool", code: "NY-4.OA.1", index: testIndex(), wantStatus: models.StatusResolved, wantCode: "NY-4.OA.1"},
		{name: "only in relaxed pool", code: "7.4a", index: testIndex(), wantStatus: models.StatusResolved, wantCode: "7.4a"},
		{name: "unknown code", code: "NY-9.ZZ.9", index: testIndex(), wantStatus: models.StatusNeedsChoice},
		{name: "empty index", code: "NY-4.OA.1", index: nil, wantStatus: models.StatusNeedsChoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockSet(t)
			m.index.EXPECT().Index(gomock.Any(), gomock.Any()).Return(tt.index)
			// retriever and reranker have no expectations: any call fails the test

			req := mathRequest
			req.Topic = ""
			req.OverrideCode = tt.code

			outcome, err := m.selector.Select(context.Background(), req, "")
			if err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			if outcome.Status != tt.wantStatus {
				t.Fatalf("expected %s, got %s", tt.wantStatus, outcome.Status)
			}
			if tt.wantStatus == models.StatusResolved {
				if outcome.Standard.Code != tt.wantCode || outcome.Method != models.MethodOverride {
					t.Errorf("expected override of %s, got %+v", tt.wantCode, outcome)
				}
			} else if len(outcome.Shortlist) != 0 {
				t.Errorf("expected empty shortlist, got %d", len(outcome.Shortlist))
			}
		})
	}
}

func TestSelect_Errors(t *testing.T) {
	t.Run("invalid request", func(t *testing.T) {
		m := newMockSet(t)
		req := mathRequest
		req.Topic = "   "

		_, err := m.selector.Select(context.Background(), req, "")
		if !errors.Is(err, models.ErrEmptyTopic) {
			t.Errorf("expected ErrEmptyTopic, got %v", err)
		}
	})

	t.Run("query embedding failure", func(t *testing.T) {
		m := newMockSet(t)
		m.index.EXPECT().Index(gomock.Any(), gomock.Any()).Return(testIndex())
		m.retriever.EXPECT().Retrieve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(retriever.Result{}, errors.New("503 from embedding service"))

		_, err := m.selector.Select(context.Background(), mathRequest, "")
		if !errors.Is(err, ErrQueryEmbedding) {
			t.Errorf("expected ErrQueryEmbedding, got %v", err)
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		m := newMockSet(t)
		m.index.EXPECT().Index(gomock.Any(), gomock.Any()).Return(testIndex())
		m.retriever.EXPECT().Retrieve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(retriever.Result{}, retriever.ErrDimensionMismatch)

		_, err := m.selector.Select(context.Background(), mathRequest, "")
		if !errors.Is(err, retriever.ErrDimensionMismatch) || errors.Is(err, ErrQueryEmbedding) {
			t.Errorf("expected bare ErrDimensionMismatch, got %v", err)
		}
	})

	t.Run("judge transport failure", func(t *testing.T) {
		m := newMockSet(t)
		index := testIndex()
		recall := []models.ScoredCandidate{{StandardRow: index[0]}}
		m.index.EXPECT().Index(gomock.Any(), gomock.Any()).Return(index)
		m.retriever.EXPECT().Retrieve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(retriever.Result{Candidates: recall}, nil)
		m.reranker.EXPECT().Rerank(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("connection refused"))

		_, err := m.selector.Select(context.Background(), mathRequest, "")
		if !errors.Is(err, ErrJudge) {
			t.Errorf("expected ErrJudge, got %v", err)
		}
	})
}

// pipeline wires the real retriever and reranker around mocked oracles.
func pipeline(t *testing.T, queryVector []float32, scoreFor func(prompt string) string) *Selector {
	t.Helper()
	ctrl := gomock.NewController(t)

	embedder := embeddingmocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{queryVector}, nil)

	client := llmmocks.NewMockLLMClient(ctrl)
	client.EXPECT().InvokeModel(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req llm.LLMRequest) (*llm.LLMResponse, error) {
			return &llm.LLMResponse{Content: scoreFor(req.Prompt)}, nil
		}).
		AnyTimes()

	cfg := config.Default()
	judge, err := rerank.NewRelevanceJudge(cfg.Judge, client, newTestLogger())
	if err != nil {
		t.Fatalf("NewRelevanceJudge failed: %v", err)
	}

	return NewSelector(
		store.NewStatic(testIndex(), newTestLogger()),
		retriever.New(embedder, retriever.OptionsFromConfig(cfg), newTestLogger()),
		rerank.NewReranker(judge, cfg.RerankTopK, newTestLogger()),
		Policy{AcceptThreshold: cfg.AcceptThreshold, ShortlistSize: cfg.ShortlistSize},
		newTestLogger(),
	)
}

func TestPipeline_FractionsAutoSelects(t *testing.T) {
	selector := pipeline(t, []float32{1, 0, 0}, func(prompt string) string {
		if strings.Contains(prompt, "NY-4.NF.1") {
			return `{"score": 5, "reason": "Fraction equivalence as equal parts."}`
		}
		return `{"score": 1, "reason": "Different concept."}`
	})

	outcome, err := selector.Select(context.Background(), mathRequest, "")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if outcome.Status != models.StatusResolved || outcome.Method != models.MethodAuto {
		t.Fatalf("expected auto-selected outcome, got %+v", outcome)
	}
	if outcome.Standard.Code != "NY-4.NF.1" {
		t.Errorf("expected NY-4.NF.1, got %s", outcome.Standard.Code)
	}
	if outcome.Standard.Vector != nil {
		t.Error("resolved standard must not carry its vector")
	}
}

func TestPipeline_OffTopicNeedsChoice(t *testing.T) {
	selector := pipeline(t, []float32{0, 0, 1}, func(string) string {
		return `{"score": 0, "reason": "Not a mathematics topic."}`
	})

	req := mathRequest
	req.Topic = "the French Revolution"

	outcome, err := selector.Select(context.Background(), req, "")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if outcome.Status != models.StatusNeedsChoice || outcome.Standard != nil {
		t.Fatalf("expected needs_choice, got %+v", outcome)
	}
	// strict pool has three Grade 4 mathematics rows; the social studies row is never considered
	if len(outcome.Shortlist) != 3 {
		t.Fatalf("expected 3 shortlisted, got %d", len(outcome.Shortlist))
	}
	for _, c := range outcome.Shortlist {
		if c.Code == "7.4a" {
			t.Error("relaxed pool used although strict pool was non-empty")
		}
		if c.JudgeScore() != 0 {
			t.Errorf("expected judge score 0 for %s, got %v", c.Code, c.JudgeScore())
		}
	}
}

func TestPipeline_ParseErrorsDegradeToNeedsChoice(t *testing.T) {
	selector := pipeline(t, []float32{1, 0, 0}, func(string) string {
		return "Sure! This looks relevant."
	})

	outcome, err := selector.Select(context.Background(), mathRequest, "")
	if err != nil {
		t.Fatalf("parse errors must not fail the request: %v", err)
	}
	if outcome.Status != models.StatusNeedsChoice {
		t.Fatalf("expected needs_choice, got %s", outcome.Status)
	}
	for _, c := range outcome.Shortlist {
		if c.Reason != rerank.ParseErrorReason || c.JudgeScore() != 0 {
			t.Errorf("expected parse error entries, got %+v", c)
		}
	}
	// ties on judge score keep recall order
	if outcome.Shortlist[0].Code != "NY-4.NF.1" {
		t.Errorf("expected recall leader first, got %s", outcome.Shortlist[0].Code)
	}
}
