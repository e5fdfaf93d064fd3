package interactions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/castmap/castmap/internal/util"
	"github.com/castmap/castmap/pkg/ai"
	"github.com/castmap/castmap/pkg/cache"
	"github.com/castmap/castmap/pkg/logger"
)

var (
	// ErrEmptyInput reports a request with no text to analyze. No pipeline
	// work is performed.
	ErrEmptyInput = errors.New("input text is empty")

	// ErrPipelineExhausted reports that every segment extraction failed.
	// An empty graph in that case would be indistinguishable from a valid
	// "no interactions found" answer, so it is reported as a failure
	// instead.
	ErrPipelineExhausted = errors.New("extraction failed for all segments")
)

// Input identifies the text to analyze. When Identifier carries a stable
// catalog number it is preferred for cache-key derivation; otherwise the
// key is a hash of the truncated content itself.
type Input struct {
	Identifier string
	Text       string
}

// Config bounds the pipeline's model usage. Zero values fall back to the
// defaults applied by NewPipeline.
type Config struct {
	// MaxInputLength is the hard rune cutoff applied to input text.
	MaxInputLength int
	// ChunkSize is the maximum segment length in runes; <= 0 disables
	// chunking so the whole truncated text goes out as one request.
	ChunkSize int
	// CacheTTL is how long a completed analysis stays cached.
	CacheTTL time.Duration
	// RequestTimeout bounds each extraction call.
	RequestTimeout time.Duration
	// ParallelRequests limits concurrent extraction calls.
	ParallelRequests int
	// MaxRetries is the number of attempts per segment; 1 means no retry.
	MaxRetries int
}

const (
	defaultMaxInputLength   = 50000
	defaultChunkSize        = 10000
	defaultCacheTTL         = 24 * time.Hour
	defaultRequestTimeout   = 120 * time.Second
	defaultParallelRequests = 5
)

// Pipeline sequences cache lookup, segmentation, concurrent extraction,
// aggregation, and the cache write. It owns no mutable state across calls
// beyond the cache and the single-flight group, so one Pipeline is shared
// by all requests.
//
// A Pipeline should be created using NewPipeline.
type Pipeline struct {
	client ai.ModelClient
	store  cache.Store
	cfg    Config

	group singleflight.Group
}

// NewPipeline creates a pipeline using the given model client and cache
// store, applying defaults for unset Config fields.
func NewPipeline(client ai.ModelClient, store cache.Store, cfg Config) *Pipeline {
	if cfg.MaxInputLength <= 0 {
		cfg.MaxInputLength = defaultMaxInputLength
	}
	if cfg.ChunkSize < 0 {
		cfg.ChunkSize = 0
	} else if cfg.ChunkSize == 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.ParallelRequests <= 0 {
		cfg.ParallelRequests = defaultParallelRequests
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}

	return &Pipeline{
		client: client,
		store:  store,
		cfg:    cfg,
	}
}

// CacheKey derives the deterministic cache key for an input. A stable
// identifier is preferred; without one the key is a sha256 hash over the
// full truncated content, so different texts never share a key.
func (p *Pipeline) CacheKey(input Input) string {
	if id := strings.TrimSpace(input.Identifier); id != "" {
		return "gutenberg:" + id
	}
	truncated := Truncate(strings.TrimSpace(input.Text), p.cfg.MaxInputLength)
	sum := sha256.Sum256([]byte(truncated))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// AnalyzeText returns the interaction graph for the input, serving repeated
// requests for the same key from the cache. Concurrent requests for the
// same key are collapsed into a single computation whose result fans out to
// all waiters.
func (p *Pipeline) AnalyzeText(ctx context.Context, input Input) (InteractionGraph, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	key := p.CacheKey(input)

	result, err, shared := p.group.Do(key, func() (any, error) {
		return p.analyze(ctx, key, text)
	})
	if err != nil && ctx.Err() == nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		// A collapsed computation runs on the driving caller's context, so
		// its cancellation fails every waiter. Waiters that are still live
		// compute again on their own context.
		result, err, shared = p.group.Do(key, func() (any, error) {
			return p.analyze(ctx, key, text)
		})
	}
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("[Pipeline] Result shared with concurrent request", "key", key)
	}
	return result.(InteractionGraph), nil
}

func (p *Pipeline) analyze(ctx context.Context, key, text string) (InteractionGraph, error) {
	if graph, ok, err := p.store.Get(ctx, key); err != nil {
		logger.Warn("[Pipeline] Cache read failed, treating as miss", "key", key, "err", err)
	} else if ok {
		logger.Debug("[Pipeline] Cache hit", "key", key)
		return InteractionGraph(graph), nil
	}

	runID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	segments := SegmentText(text, p.cfg.MaxInputLength, p.cfg.ChunkSize)
	logger.Info("[Pipeline] Analyzing text", "run_id", runID, "key", key, "segments", len(segments))

	partials := make([]PartialResult, 0, len(segments))
	failures := 0
	var mu sync.Mutex

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.cfg.ParallelRequests)
	for _, segment := range segments {
		s := segment
		eg.Go(func() error {
			partial, err := util.RetryWithContext(gCtx, p.cfg.MaxRetries, func(ctx context.Context) (PartialResult, error) {
				return extractFromSegment(ctx, s, p.client, p.cfg.RequestTimeout)
			})
			if err != nil {
				var xErr *ExtractionError
				if errors.As(err, &xErr) {
					logger.Warn("[Pipeline] Segment extraction failed", "run_id", runID, "segment", xErr.Segment, "kind", string(xErr.Kind), "err", xErr.Err)
				} else {
					logger.Warn("[Pipeline] Segment extraction failed", "run_id", runID, "segment", s.Index, "err", err)
				}
				mu.Lock()
				failures++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			partials = append(partials, partial)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	// An abandoned request must not produce a cache write for a graph
	// nobody will receive.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if len(segments) > 0 && failures == len(segments) {
		logger.Error("[Pipeline] All segments failed", "run_id", runID, "key", key, "segments", len(segments))
		return nil, ErrPipelineExhausted
	}

	graph := Merge(partials)
	logger.Info("[Pipeline] Analysis complete", "run_id", runID, "key", key, "characters", len(graph), "pairs", graph.Edges(), "failed_segments", failures)

	if err := p.store.Put(ctx, key, cache.Graph(graph), p.cfg.CacheTTL); err != nil {
		logger.Warn("[Pipeline] Cache write failed", "key", key, "err", err)
	}

	return graph, nil
}
