package rerank

import (
	"context"
	"sort"
	"time"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultTopK = 12

type Judge interface {
	Judge(ctx context.Context, topic string, row models.StandardRow) (Judgment, error)
}

// Reranker judges the head of the recall list concurrently and reorders it.
type Reranker struct {
	judge  Judge
	topK   int
	logger *zerolog.Logger
}

func NewReranker(judge Judge, topK int, logger *zerolog.Logger) *Reranker {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Reranker{
		judge:  judge,
		topK:   topK,
		logger: logger,
	}
}

// Rerank judges the first topK candidates in parallel and returns them sorted
// by judge score, then recall score, both descending. Any judge error aborts
// the whole step.
func (r *Reranker) Rerank(ctx context.Context, topic string, candidates []models.ScoredCandidate) ([]models.ScoredCandidate, error) {
	start := time.Now()

	n := min(len(candidates), r.topK)
	judged := make([]models.ScoredCandidate, n)
	copy(judged, candidates[:n])

	g, gctx := errgroup.WithContext(ctx)
	for i := range judged {
		g.Go(func() error {
			judgment, err := r.judge.Judge(gctx, topic, judged[i].StandardRow)
			if err != nil {
				return err
			}
			score := judgment.Score
			judged[i].ScoreLLM = &score
			judged[i].Reason = judgment.Reason
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortByJudgment(judged)

	parseErrors := 0
	for _, c := range judged {
		if c.Reason == ParseErrorReason {
			parseErrors++
		}
	}
	event := r.logger.Debug().
		Int("judged", n).
		Int("parse_errors", parseErrors).
		Dur("duration", time.Since(start))
	if n > 0 {
		event = event.Str("top_code", judged[0].Code).Float64("top_score", judged[0].JudgeScore())
	}
	event.Msg("rerank complete")

	return judged, nil
}

// SortByJudgment orders by judge score, then recall score, both descending.
func SortByJudgment(candidates []models.ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].JudgeScore(), candidates[j].JudgeScore()
		if a != b {
			return a > b
		}
		return candidates[i].ScoreRecall > candidates[j].ScoreRecall
	})
}
