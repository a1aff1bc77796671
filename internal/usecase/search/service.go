package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/kailas-cloud/b2bsearch/internal/domain"
	"github.com/kailas-cloud/b2bsearch/internal/domain/catalog"
	"github.com/kailas-cloud/b2bsearch/internal/domain/flags"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/pagination"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/query"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/request"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/result"
	"github.com/kailas-cloud/b2bsearch/internal/logger"
	"github.com/kailas-cloud/b2bsearch/internal/metrics"
	"github.com/kailas-cloud/b2bsearch/internal/tracing"
)

// Limits for the catalog endpoints.
const (
	DefaultSuggestSize     = 5
	MaxSuggestSize         = 20
	DefaultStatsVendors    = 10
	DefaultStatsCategories = 20
	MaxStatsBuckets        = 100
)

// Config holds the process-wide search settings.
type Config struct {
	Defaults  flags.FlagSet
	SortField string
	// Timeout bounds every retrieval call. Zero means no extra bound.
	Timeout time.Duration
	// SuggestDefault and SuggestMax bound suggestion sizes; zero takes the package limits.
	SuggestDefault int
	SuggestMax     int
}

// Response is one page of ranked results.
type Response struct {
	Query      string
	Total      result.Total
	Hits       []result.Hit
	TookMS     int64
	Pagination pagination.Info
	Flags      flags.FlagSet
	Signals    []query.Signal
}

// Service compiles requests into ranked queries and runs them.
type Service struct {
	repo     Repository
	embed    QueryEmbedder
	profiles Profiles
	cfg      Config
	logger   *zap.Logger
}

// New creates a search service. embed may be nil.
func New(repo Repository, embed QueryEmbedder, profiles Profiles, cfg Config, l *zap.Logger) *Service {
	if cfg.SortField == "" {
		cfg.SortField = query.DefaultSortField
	}
	if cfg.SuggestMax <= 0 {
		cfg.SuggestMax = MaxSuggestSize
	}
	if cfg.SuggestDefault <= 0 || cfg.SuggestDefault > cfg.SuggestMax {
		cfg.SuggestDefault = min(DefaultSuggestSize, cfg.SuggestMax)
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{repo: repo, embed: embed, profiles: profiles, cfg: cfg, logger: l}
}

// Defaults returns the process-wide flag set.
func (s *Service) Defaults() flags.FlagSet { return s.cfg.Defaults }

// Search runs one ranked search. A disabled service rejects the request
// before any compilation or retrieval happens.
func (s *Service) Search(ctx context.Context, req *request.Request) (resp Response, err error) {
	if !s.cfg.Defaults.SearchEnabled {
		metrics.SearchRequestsTotal.WithLabelValues(string(s.cfg.Defaults.Strategy), "disabled").Inc()
		return Response{}, domain.ErrSearchDisabled
	}

	fs := flags.Resolve(s.cfg.Defaults, req.Overrides())
	ctx, end := tracing.StartSpan(ctx, "search",
		attribute.String("strategy", string(fs.Strategy)),
		attribute.Bool("personalized", fs.PersonalizationEnabled && req.Identity().UserID != ""),
	)
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.SearchRequestsTotal.WithLabelValues(string(fs.Strategy), status).Inc()
		end(err)
	}()

	var vec []float32
	if fs.WantsVector() && req.Query() != "" && s.embed != nil {
		vec = s.embed.EmbedQuery(ctx, req.Query())
	}

	id := req.Identity()
	compiled := query.Compile(query.Input{
		Text:      req.Query(),
		Filters:   req.Filters(),
		UserID:    id.UserID,
		UserType:  id.UserType,
		Vector:    vec,
		Flags:     fs,
		SortField: s.cfg.SortField,
	}, s.profiles.Current())
	tracing.SetAttributes(ctx, attribute.Int("optional_clauses", len(compiled.Optional)))

	params := pagination.Resolve(req.Size(), req.Page())

	rctx, cancel := s.withTimeout(ctx)
	defer cancel()
	page, err := s.repo.Search(rctx, compiled, params)
	if err != nil {
		return Response{}, fmt.Errorf("search: %w", err)
	}

	next := pagination.Next(page.Hits, req.Size())
	logger.FromContextOr(ctx, s.logger).Debug("Search completed",
		zap.String("strategy", string(fs.Strategy)),
		zap.Bool("overridden", !req.Overrides().IsZero()),
		zap.Bool("vector", vec != nil),
		zap.Int("hits", len(page.Hits)),
		zap.Int64("total", page.Total.Value),
		zap.Int64("took_ms", page.TookMS),
	)

	return Response{
		Query:      req.Query(),
		Total:      page.Total,
		Hits:       page.Hits,
		TookMS:     page.TookMS,
		Pagination: pagination.Describe(req.Size(), req.Page(), next, page.Total.Value),
		Flags:      fs,
		Signals:    compiled.Signals(),
	}, nil
}

// Suggest returns autocomplete entries. Backend failures degrade to an
// empty list.
func (s *Service) Suggest(ctx context.Context, text string, size int) ([]catalog.Suggestion, error) {
	if !s.cfg.Defaults.SearchEnabled {
		return nil, domain.ErrSearchDisabled
	}
	if size == 0 {
		size = s.cfg.SuggestDefault
	}
	if size < 1 || size > s.cfg.SuggestMax {
		return nil, domain.NewValidationError("size", fmt.Sprintf("must be between 1 and %d", s.cfg.SuggestMax))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return []catalog.Suggestion{}, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	out, err := s.repo.Suggest(ctx, text, size)
	if err != nil {
		metrics.DegradedTotal.WithLabelValues(metrics.ReasonSuggestFailed).Inc()
		logger.FromContextOr(ctx, s.logger).Warn("Suggestions unavailable",
			zap.String("reason", metrics.ReasonSuggestFailed), zap.Error(err))
		return []catalog.Suggestion{}, nil
	}
	return out, nil
}

// Product returns one catalog document by id.
func (s *Service) Product(ctx context.Context, id string) (catalog.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return catalog.Document{}, domain.NewValidationError("id", "is required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	doc, err := s.repo.Product(ctx, id)
	if err != nil {
		return catalog.Document{}, fmt.Errorf("get product: %w", err)
	}
	return doc, nil
}

// Stats returns catalog aggregations. Zero bucket sizes take the defaults.
func (s *Service) Stats(ctx context.Context, vendors, categories int) (catalog.Stats, error) {
	if vendors == 0 {
		vendors = DefaultStatsVendors
	}
	if categories == 0 {
		categories = DefaultStatsCategories
	}
	if vendors < 1 || vendors > MaxStatsBuckets {
		return catalog.Stats{}, domain.NewValidationError("vendors", fmt.Sprintf("must be between 1 and %d", MaxStatsBuckets))
	}
	if categories < 1 || categories > MaxStatsBuckets {
		return catalog.Stats{}, domain.NewValidationError("categories", fmt.Sprintf("must be between 1 and %d", MaxStatsBuckets))
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	st, err := s.repo.Stats(ctx, vendors, categories)
	if err != nil {
		return catalog.Stats{}, fmt.Errorf("catalog stats: %w", err)
	}
	return st, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}
