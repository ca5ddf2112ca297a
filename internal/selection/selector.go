package selection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/retriever"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -source=selector.go -destination=mocks/selector_mock.go -package=mocks

var (
	ErrQueryEmbedding = errors.New("query embedding failed")
	ErrJudge          = errors.New("relevance judge failed")
)

type State string

const (
	StateRetrieving   State = "retrieving"
	StateReranking    State = "reranking"
	StateAutoSelected State = "auto_selected"
	StateNeedsChoice  State = "needs_choice"
	StateResolved     State = "resolved"
)

// IndexSource supplies the embedded index; an empty slice means not ready.
type IndexSource interface {
	Index(ctx context.Context, baseURL string) []models.StandardRow
}

// CandidateRetriever ranks the scope pool for a topic
type CandidateRetriever interface {
	Retrieve(ctx context.Context, index []models.StandardRow, scope models.Scope, topic string) (retriever.Result, error)
}

// CandidateReranker judges and reorders recall candidates
type CandidateReranker interface {
	Rerank(ctx context.Context, topic string, candidates []models.ScoredCandidate) ([]models.ScoredCandidate, error)
}

type Policy struct {
	AcceptThreshold float64
	ShortlistSize   int
}

var DefaultPolicy = Policy{AcceptThreshold: 3.5, ShortlistSize: 5}

type Selector struct {
	index     IndexSource
	retriever CandidateRetriever
	reranker  CandidateReranker
	policy    Policy
	tracer    trace.Tracer
	logger    *zerolog.Logger
}

func NewSelector(
	index IndexSource,
	retriever CandidateRetriever,
	reranker CandidateReranker,
	policy Policy,
	logger *zerolog.Logger,
) *Selector {
	if policy.ShortlistSize <= 0 {
		policy.ShortlistSize = DefaultPolicy.ShortlistSize
	}
	return &Selector{
		index:     index,
		retriever: retriever,
		reranker:  reranker,
		policy:    policy,
		tracer:    otel.Tracer("github.com/jamiemarshall1919/Lesson-pilot/internal/selection"),
		logger:    logger,
	}
}

// Select resolves a request to one standard or a shortlist for a human to
// choose from. Errors are only returned for invalid requests and for oracle
// failures; an empty index is a needs-choice outcome.
func (s *Selector) Select(ctx context.Context, req models.SelectionRequest, baseURL string) (models.Outcome, error) {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "selection.Select", trace.WithAttributes(
		attribute.String("curriculum", req.Curriculum),
		attribute.String("subject", req.Subject),
		attribute.String("grade", req.Grade),
		attribute.Bool("override", strings.TrimSpace(req.OverrideCode) != ""),
	))
	defer span.End()

	outcome, err := s.run(ctx, req, baseURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error().
			Err(err).
			Str("request_id", req.RequestID).
			Dur("duration", time.Since(start)).
			Msg("selection failed")
		return models.Outcome{}, err
	}

	outcome.RequestID = req.RequestID
	span.SetAttributes(attribute.String("status", string(outcome.Status)))

	event := s.logger.Info().
		Str("request_id", req.RequestID).
		Str("status", string(outcome.Status)).
		Int("shortlist", len(outcome.Shortlist)).
		Dur("duration", time.Since(start))
	if outcome.Standard != nil {
		event = event.Str("code", outcome.Standard.Code).Str("method", string(outcome.Method))
	}
	event.Msg("selection complete")

	return outcome, nil
}

func (s *Selector) run(ctx context.Context, req models.SelectionRequest, baseURL string) (models.Outcome, error) {
	if err := req.Validate(); err != nil {
		return models.Outcome{}, err
	}

	index := s.index.Index(ctx, baseURL)
	scope := req.Scope()

	if code := strings.TrimSpace(req.OverrideCode); code != "" {
		return s.override(index, scope, code), nil
	}

	if len(index) == 0 {
		s.transition(req, StateNeedsChoice, "index not ready")
		return models.NeedsChoice(nil), nil
	}

	s.transition(req, StateRetrieving, "")
	recall, err := s.retriever.Retrieve(ctx, index, scope, req.Topic)
	if err != nil {
		if errors.Is(err, retriever.ErrDimensionMismatch) {
			return models.Outcome{}, err
		}
		return models.Outcome{}, fmt.Errorf("%w: %w", ErrQueryEmbedding, err)
	}
	if len(recall.Candidates) == 0 {
		s.transition(req, StateNeedsChoice, "empty pool")
		return models.NeedsChoice(nil), nil
	}

	s.transition(req, StateReranking, recall.Level.String())
	ranked, err := s.reranker.Rerank(ctx, req.Topic, recall.Candidates)
	if err != nil {
		return models.Outcome{}, fmt.Errorf("%w: %w", ErrJudge, err)
	}
	if len(ranked) == 0 {
		s.transition(req, StateNeedsChoice, "nothing judged")
		return models.NeedsChoice(nil), nil
	}

	best := ranked[0]
	if best.JudgeScore() >= s.policy.AcceptThreshold {
		s.transition(req, StateAutoSelected, best.Code)
		return models.Resolved(best.StandardRow, models.MethodAuto), nil
	}

	s.transition(req, StateNeedsChoice, "below threshold")
	return models.NeedsChoice(ranked[:min(len(ranked), s.policy.ShortlistSize)]), nil
}

func (s *Selector) override(index []models.StandardRow, scope models.Scope, code string) models.Outcome {
	row, level, found := retriever.FindByCode(index, scope, code)
	if !found {
		s.logger.Info().Str("code", code).Msg("override code not found")
		return models.NeedsChoice(nil)
	}

	s.logger.Debug().Str("code", code).Str("pool_level", level.String()).Msg("override code resolved")
	return models.Resolved(row, models.MethodOverride)
}

func (s *Selector) transition(req models.SelectionRequest, state State, detail string) {
	s.logger.Debug().
		Str("request_id", req.RequestID).
		Str("state", string(state)).
		Str("detail", detail).
		Msg("selection state")
}
