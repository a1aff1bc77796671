package search

import (
	"context"

	"github.com/kailas-cloud/b2bsearch/internal/domain/catalog"
	"github.com/kailas-cloud/b2bsearch/internal/domain/profile"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/pagination"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/query"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/result"
)

// Repository is the retrieval backend contract.
type Repository interface {
	Search(ctx context.Context, q query.Compiled, p pagination.Params) (result.Page, error)
	Suggest(ctx context.Context, text string, size int) ([]catalog.Suggestion, error)
	Product(ctx context.Context, id string) (catalog.Document, error)
	Stats(ctx context.Context, vendors, categories int) (catalog.Stats, error)
}

// QueryEmbedder vectorizes query text. A nil vector means "no semantic signal".
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) []float32
}

// Profiles exposes the live profile snapshot.
type Profiles interface {
	Current() *profile.Snapshot
}
