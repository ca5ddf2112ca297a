package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/embedding"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultBatchSize = 100
	MaxAttempts      = 5
)

// RetryBaseDelay is the unit of the linear backoff between batch attempts.
var RetryBaseDelay = 2 * time.Second

var (
	ErrVectorCount         = errors.New("embedding count does not match input count")
	ErrInconsistentVectors = errors.New("embedding dimensions differ within the index")
	ErrRetriesExhausted    = errors.New("embedding retries exhausted")
)

// Progress is called after each committed batch.
type Progress func(done, total int)

type Options struct {
	BatchSize int
	// RequestsPerSecond paces embedding calls; zero or negative disables pacing.
	RequestsPerSecond float64
	Progress          Progress
}

type Stats struct {
	Rows       int
	Batches    int
	Dimensions int
	Duration   time.Duration
}

type Builder struct {
	embedder  embedding.Embedder
	batchSize int
	limiter   *rate.Limiter
	progress  Progress
	logger    *zerolog.Logger
}

func NewBuilder(embedder embedding.Embedder, opts Options, logger *zerolog.Logger) *Builder {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Builder{
		embedder:  embedder,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(limit, 1),
		progress:  opts.Progress,
		logger:    logger,
	}
}

// Build embeds every row and writes the snapshot to outPath. Nothing is
// written when rows is empty, and a failed build leaves no file behind.
func (b *Builder) Build(ctx context.Context, rows []models.StandardRow, outPath string) (Stats, error) {
	start := time.Now()
	stats := Stats{}

	if len(rows) == 0 {
		b.logger.Warn().Msg("no rows to index, snapshot not written")
		return stats, nil
	}

	snapshot, err := CreateSnapshot(outPath)
	if err != nil {
		return stats, err
	}
	defer snapshot.Abort()

	total := len(rows)
	for offset := 0; offset < total; offset += b.batchSize {
		end := min(offset+b.batchSize, total)
		batch := rows[offset:end]

		embedded, err := b.embedBatch(ctx, batch, stats.Dimensions)
		if err != nil {
			return stats, fmt.Errorf("batch %d (rows %d-%d): %w", stats.Batches+1, offset, end-1, err)
		}

		for _, row := range embedded {
			if err := snapshot.Write(row); err != nil {
				return stats, err
			}
		}

		stats.Batches++
		stats.Rows = end
		if stats.Dimensions == 0 {
			stats.Dimensions = len(embedded[0].Vector)
		}

		b.logger.Info().
			Int("done", end).
			Int("total", total).
			Int("batch", stats.Batches).
			Msg("batch embedded")
		if b.progress != nil {
			b.progress(end, total)
		}
	}

	if err := snapshot.Commit(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	b.logger.Info().
		Str("path", outPath).
		Int("rows", stats.Rows).
		Int("dimensions", stats.Dimensions).
		Dur("duration", stats.Duration).
		Msg("snapshot written")

	return stats, nil
}

// embedBatch fills Text and Vector on a copy of batch, retrying the oracle
// call with linear backoff.
func (b *Builder) embedBatch(ctx context.Context, batch []models.StandardRow, dims int) ([]models.StandardRow, error) {
	texts := make([]string, len(batch))
	for i, row := range batch {
		texts[i] = row.ComposeText()
	}

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		vectors, err := b.embedder.EmbedTexts(ctx, texts)
		if err == nil {
			err = checkVectors(vectors, len(texts), dims)
		}
		if err == nil {
			out := make([]models.StandardRow, len(batch))
			for i, row := range batch {
				row.Text = texts[i]
				row.Vector = vectors[i]
				out[i] = row
			}
			return out, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		b.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", MaxAttempts).
			Msg("embedding batch failed")

		if attempt == MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * RetryBaseDelay):
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, MaxAttempts, lastErr)
}

// checkVectors enforces one non-empty vector per text, all of the same length.
// dims of zero means no dimension has been fixed yet.
func checkVectors(vectors [][]float32, want int, dims int) error {
	if len(vectors) != want {
		return fmt.Errorf("%w: sent %d texts, got %d vectors", ErrVectorCount, want, len(vectors))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("vector %d is empty", i)
		}
		if dims == 0 {
			dims = len(v)
		}
		if len(v) != dims {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrInconsistentVectors, i, len(v), dims)
		}
	}
	return nil
}
