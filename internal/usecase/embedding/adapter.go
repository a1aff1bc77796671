// Package embedding turns query and product text into vectors. Query
// embedding never fails a request: every problem degrades to "no vector".
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/b2bsearch/internal/domain"
	"github.com/kailas-cloud/b2bsearch/internal/logger"
	"github.com/kailas-cloud/b2bsearch/internal/metrics"
)

// Defaults for the bge-small family.
const (
	DefaultDimensions    = 384
	DefaultMaxInputChars = 512 * 4
	DefaultQueryPrefix   = "query: "
	DefaultBatchSize     = 32
	DefaultConcurrency   = 4
)

// Config tunes the adapter. Zero values take the defaults above, except
// RateLimit where zero disables limiting.
type Config struct {
	Dimensions    int
	MaxInputChars int
	QueryPrefix   string
	BatchSize     int
	Concurrency   int
	RateLimit     float64
	RateBurst     int
}

// Adapter embeds queries for search and product texts for indexing.
type Adapter struct {
	embedder domain.Embedder
	limiter  *rate.Limiter
	cfg      Config
	logger   *zap.Logger
}

// NewAdapter creates an adapter. A nil embedder disables vectors.
func NewAdapter(e domain.Embedder, cfg Config, l *zap.Logger) *Adapter {
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.MaxInputChars == 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if l == nil {
		l = zap.NewNop()
	}

	a := &Adapter{embedder: e, cfg: cfg, logger: l}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return a
}

// Enabled reports whether an embedder is configured.
func (a *Adapter) Enabled() bool { return a != nil && a.embedder != nil }

// Dimensions returns the expected vector size.
func (a *Adapter) Dimensions() int { return a.cfg.Dimensions }

// Normalize truncates text to the input limit and trims whitespace.
func (a *Adapter) Normalize(text string) string {
	return strings.TrimSpace(truncateRunes(text, a.cfg.MaxInputChars))
}

// EmbedQuery returns the query vector, or nil when the text is empty or
// embedding is unavailable for any reason.
func (a *Adapter) EmbedQuery(ctx context.Context, text string) []float32 {
	if a == nil {
		return nil
	}
	text = a.Normalize(text)
	if text == "" {
		return nil
	}
	if a.embedder == nil {
		a.degrade(ctx, metrics.ReasonEmbeddingDisabled, nil)
		return nil
	}
	if a.limiter != nil && !a.limiter.Allow() {
		a.degrade(ctx, metrics.ReasonRateLimited, domain.ErrRateLimited)
		return nil
	}

	res, err := a.embedder.Embed(ctx, a.cfg.QueryPrefix+text)
	if err != nil {
		reason := metrics.ReasonEmbeddingError
		if errors.Is(err, domain.ErrRateLimited) {
			reason = metrics.ReasonRateLimited
		}
		a.degrade(ctx, reason, err)
		return nil
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)

	if len(res.Embedding) != a.cfg.Dimensions {
		a.degrade(ctx, metrics.ReasonDimMismatch,
			fmt.Errorf("got %d, want %d: %w", len(res.Embedding), a.cfg.Dimensions, domain.ErrVectorDimMismatch))
		return nil
	}
	return res.Embedding
}

func (a *Adapter) degrade(ctx context.Context, reason string, err error) {
	metrics.DegradedTotal.WithLabelValues(reason).Inc()
	fields := []zap.Field{zap.String("reason", reason)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	logger.FromContextOr(ctx, a.logger).Warn("Query embedding skipped", fields...)
}

// EmbedDocuments embeds product texts without a prefix. Batches run in
// parallel up to the configured concurrency; results keep input order.
// Texts that are empty after normalization get a nil vector.
func (a *Adapter) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if !a.Enabled() {
		return nil, domain.ErrEmbeddingUnavailable
	}

	out := make([][]float32, len(texts))
	var idx []int
	var norm []string
	for i, t := range texts {
		if t = a.Normalize(t); t != "" {
			idx = append(idx, i)
			norm = append(norm, t)
		}
	}

	var tokens atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for start := 0; start < len(norm); start += a.cfg.BatchSize {
		end := min(start+a.cfg.BatchSize, len(norm))
		g.Go(func() error {
			vecs, used, err := a.embedBatch(gctx, norm[start:end])
			if err != nil {
				return fmt.Errorf("batch at %d: %w", start, err)
			}
			tokens.Add(int64(used))
			for j, v := range vecs {
				out[idx[start+j]] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already wrapped per batch
	}
	domain.UsageFromContext(ctx).AddTokens(int(tokens.Load()))
	return out, nil
}

func (a *Adapter) embedBatch(ctx context.Context, texts []string) ([][]float32, int, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("rate limiter: %w", err)
		}
	}

	metrics.EmbeddingBatchSize.Observe(float64(len(texts)))
	var res domain.BatchEmbeddingResult
	var err error
	if be, ok := a.embedder.(domain.BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, texts)
	} else {
		res, err = domain.BatchFallback(ctx, a.embedder, texts)
	}
	if err != nil {
		return nil, 0, err //nolint:wrapcheck // caller adds batch offset
	}
	if len(res.Embeddings) != len(texts) {
		return nil, 0, fmt.Errorf("got %d vectors for %d texts: %w",
			len(res.Embeddings), len(texts), domain.ErrEmbeddingProviderError)
	}
	for _, v := range res.Embeddings {
		if len(v) != a.cfg.Dimensions {
			return nil, 0, fmt.Errorf("got %d, want %d: %w", len(v), a.cfg.Dimensions, domain.ErrVectorDimMismatch)
		}
	}
	return res.Embeddings, res.TotalTokens, nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
