package store

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultLocalPath  = "public/standards_index.json"
	DefaultRemotePath = "/standards_index.json"
)

type Options struct {
	LocalPath  string
	RemotePath string
	HTTPClient *http.Client
}

// Store holds the embedded index for the life of the process. The first
// non-empty load wins and is never refreshed.
type Store struct {
	localPath  string
	remotePath string
	client     *http.Client
	logger     *zerolog.Logger

	group singleflight.Group
	index atomic.Pointer[[]models.StandardRow]
}

func New(opts Options, logger *zerolog.Logger) *Store {
	if opts.LocalPath == "" {
		opts.LocalPath = DefaultLocalPath
	}
	if opts.RemotePath == "" {
		opts.RemotePath = DefaultRemotePath
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   60 * time.Second,
		}
	}

	return &Store{
		localPath:  opts.LocalPath,
		remotePath: opts.RemotePath,
		client:     opts.HTTPClient,
		logger:     logger,
	}
}

// NewStatic returns a store already latched to rows.
func NewStatic(rows []models.StandardRow, logger *zerolog.Logger) *Store {
	s := New(Options{}, logger)
	s.index.Store(&rows)
	return s
}

// Index returns the snapshot, loading it on first use. baseURL is the origin
// used for the remote fallback; it may be empty. An empty result means the
// index is not available yet.
func (s *Store) Index(ctx context.Context, baseURL string) []models.StandardRow {
	if rows := s.index.Load(); rows != nil {
		return *rows
	}

	// Keyed by origin so a caller never shares a load aimed elsewhere.
	v, _, _ := s.group.Do("index|"+baseURL, func() (any, error) {
		if rows := s.index.Load(); rows != nil {
			return *rows, nil
		}

		rows := s.load(context.WithoutCancel(ctx), baseURL)
		if len(rows) > 0 {
			s.index.Store(&rows)
		}
		return rows, nil
	})

	rows, _ := v.([]models.StandardRow)
	return rows
}

func (s *Store) Ready() bool {
	return s.index.Load() != nil
}

func (s *Store) load(ctx context.Context, baseURL string) []models.StandardRow {
	rows, err := s.loadLocal()
	if err == nil && len(rows) > 0 {
		s.logger.Info().Str("source", s.localPath).Int("rows", len(rows)).Msg("index loaded")
		return rows
	}
	s.logger.Warn().Err(err).Str("path", s.localPath).Msg("local index unavailable")

	if baseURL == "" {
		s.logger.Warn().Msg("no base URL for remote index")
		return nil
	}

	url := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(s.remotePath, "/")
	rows, err = s.loadRemote(ctx, url)
	if err != nil {
		s.logger.Error().Err(err).Str("url", url).Msg("remote index unavailable")
		return nil
	}

	s.logger.Info().Str("source", url).Int("rows", len(rows)).Msg("index loaded")
	return rows
}

func (s *Store) loadLocal() ([]models.StandardRow, error) {
	f, err := os.Open(s.localPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result, err := Decode(f)
	if err != nil {
		return nil, err
	}
	s.logSkipped(s.localPath, result.Skipped)
	return result.Rows, nil
}

func (s *Store) loadRemote(ctx context.Context, url string) ([]models.StandardRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	result, err := Decode(resp.Body)
	if err != nil {
		return nil, err
	}
	s.logSkipped(url, result.Skipped)
	return result.Rows, nil
}

func (s *Store) logSkipped(source string, skipped int) {
	if skipped > 0 {
		s.logger.Warn().Str("source", source).Int("skipped", skipped).Msg("invalid index rows skipped")
	}
}
