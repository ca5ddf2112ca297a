package retriever

import (
	"context"
	"sort"
	"time"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/config"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/embedding"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
	"github.com/rs/zerolog"
)

const DefaultTopK = 25

type Options struct {
	Weights Weights
	Lexical LexicalParams
	TopK    int
}

func OptionsFromConfig(cfg *config.RetrievalConfig) Options {
	return Options{
		Weights: Weights{Vector: cfg.VectorWeight, Lexical: cfg.LexicalWeight},
		Lexical: LexicalParams{
			TokenWeight:      cfg.Lexical.TokenWeight,
			LengthPenalty:    cfg.Lexical.LengthPenalty,
			LengthPenaltyCap: cfg.Lexical.LengthPenaltyCap,
		},
		TopK: cfg.RecallTopK,
	}
}

// Result is the ranked recall set and the scope level its pool came from.
type Result struct {
	Candidates []models.ScoredCandidate
	Level      Level
	PoolSize   int
}

type Retriever struct {
	embedder embedding.Embedder
	opts     Options
	logger   *zerolog.Logger
}

func New(embedder embedding.Embedder, opts Options, logger *zerolog.Logger) *Retriever {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights
	}
	if opts.Lexical == (LexicalParams{}) {
		opts.Lexical = DefaultLexical
	}
	return &Retriever{
		embedder: embedder,
		opts:     opts,
		logger:   logger,
	}
}

// Retrieve ranks the scope pool for topic by hybrid score. An empty index
// gives an empty result without calling the embedder. Embedding errors are
// returned unwrapped.
func (r *Retriever) Retrieve(ctx context.Context, index []models.StandardRow, scope models.Scope, topic string) (Result, error) {
	start := time.Now()

	pool, level := Pool(index, scope)
	result := Result{Level: level, PoolSize: len(pool)}
	if len(pool) == 0 {
		return result, nil
	}

	query, err := embedding.EmbedText(ctx, r.embedder, models.QueryText(scope, topic))
	if err != nil {
		return result, err
	}

	tokens := Tokenize(topic)
	vectorScores := make([]float64, len(pool))
	lexicalScores := make([]float64, len(pool))
	for i, row := range pool {
		cos, err := Cosine(query, row.Vector)
		if err != nil {
			return result, err
		}
		vectorScores[i] = cos
		lexicalScores[i] = LexicalScore(tokens, row.Description, r.opts.Lexical)
	}

	blended := r.opts.Weights.Blend(vectorScores, lexicalScores)

	candidates := make([]models.ScoredCandidate, len(pool))
	for i, row := range pool {
		candidates[i] = models.ScoredCandidate{
			StandardRow: row,
			ScoreRecall: blended[i],
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ScoreRecall > candidates[j].ScoreRecall
	})
	if len(candidates) > r.opts.TopK {
		candidates = candidates[:r.opts.TopK]
	}
	result.Candidates = candidates

	r.logger.Debug().
		Str("pool_level", level.String()).
		Int("pool_size", len(pool)).
		Int("tokens", len(tokens)).
		Int("candidates", len(candidates)).
		Float64("top_score", candidates[0].ScoreRecall).
		Dur("duration", time.Since(start)).
		Msg("candidates retrieved")

	return result, nil
}
