package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/b2bsearch/internal/domain"
	"github.com/kailas-cloud/b2bsearch/internal/domain/catalog"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/pagination"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/query"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/result"
	"github.com/kailas-cloud/b2bsearch/internal/transport/elastic"
)

// backend is the consumer interface over the retrieval cluster (ISP).
type backend interface {
	Search(ctx context.Context, body []byte) ([]byte, error)
	Get(ctx context.Context, id string) ([]byte, error)
}

// Repo implements usecase/search.Repository on the Elasticsearch DSL.
type Repo struct {
	backend backend
}

// New creates a search repository.
func New(b backend) *Repo {
	return &Repo{backend: b}
}

// Body renders the request body for a compiled query and page.
func Body(q query.Compiled, p pagination.Params) ([]byte, error) {
	b, err := json.Marshal(renderSearch(q, p))
	if err != nil {
		return nil, fmt.Errorf("render search body: %w", err)
	}
	return b, nil
}

// Search executes a compiled query and maps the hits.
func (r *Repo) Search(ctx context.Context, q query.Compiled, p pagination.Params) (result.Page, error) {
	body, err := Body(q, p)
	if err != nil {
		return result.Page{}, err
	}

	raw, err := r.backend.Search(ctx, body)
	if err != nil {
		return result.Page{}, retrievalError(ctx, elastic.OpSearch, err)
	}

	page, err := parseSearch(raw)
	if err != nil {
		return result.Page{}, domain.NewRetrievalError(elastic.OpSearch, false, err)
	}
	return page, nil
}

// Suggest returns autocomplete entries for a title prefix.
func (r *Repo) Suggest(ctx context.Context, text string, size int) ([]catalog.Suggestion, error) {
	body, err := json.Marshal(renderSuggest(text, size))
	if err != nil {
		return nil, fmt.Errorf("render suggest body: %w", err)
	}

	raw, err := r.backend.Search(ctx, body)
	if err != nil {
		return nil, retrievalError(ctx, "suggest", err)
	}

	var resp struct {
		Hits struct {
			Hits []struct {
				ID     string `json:"_id"`
				Source struct {
					Title    string `json:"title"`
					Category string `json:"category"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, domain.NewRetrievalError("suggest", false, fmt.Errorf("decode: %w", err))
	}

	out := make([]catalog.Suggestion, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		out = append(out, catalog.Suggestion{ID: h.ID, Title: h.Source.Title, Category: h.Source.Category})
	}
	return out, nil
}

// Product fetches one catalog document by id.
func (r *Repo) Product(ctx context.Context, id string) (catalog.Document, error) {
	raw, err := r.backend.Get(ctx, id)
	if errors.Is(err, elastic.ErrNotFound) {
		return catalog.Document{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return catalog.Document{}, retrievalError(ctx, elastic.OpGet, err)
	}

	var resp struct {
		ID     string          `json:"_id"`
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return catalog.Document{}, domain.NewRetrievalError(elastic.OpGet, false, fmt.Errorf("decode: %w", err))
	}
	if !resp.Found {
		return catalog.Document{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return catalog.Document{ID: resp.ID, Source: excludeEmbedding(resp.Source)}, nil
}

// Stats returns index totals and the vendor, category and stock distributions.
func (r *Repo) Stats(ctx context.Context, vendors, categories int) (catalog.Stats, error) {
	body, err := json.Marshal(renderStats(vendors, categories))
	if err != nil {
		return catalog.Stats{}, fmt.Errorf("render stats body: %w", err)
	}

	raw, err := r.backend.Search(ctx, body)
	if err != nil {
		return catalog.Stats{}, retrievalError(ctx, "stats", err)
	}

	st, err := parseStats(raw)
	if err != nil {
		return catalog.Stats{}, domain.NewRetrievalError("stats", false, err)
	}
	return st, nil
}

func retrievalError(ctx context.Context, op string, err error) error {
	timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	return domain.NewRetrievalError(op, timeout, err)
}

// excludeEmbedding drops the stored vector from a raw source object.
func excludeEmbedding(src json.RawMessage) json.RawMessage {
	if !bytes.Contains(src, []byte(`"`+query.FieldEmbedding+`"`)) {
		return src
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(src, &fields) != nil {
		return src
	}
	delete(fields, query.FieldEmbedding)
	out, err := json.Marshal(fields)
	if err != nil {
		return src
	}
	return out
}
