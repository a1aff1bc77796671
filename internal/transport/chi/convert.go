package chi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/b2bsearch/internal/domain"
	"github.com/kailas-cloud/b2bsearch/internal/domain/flags"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/pagination"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/request"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/b2bsearch/internal/usecase/search"
)

func searchRequestFromBody(body *SearchRequest, limits Limits) (request.Request, error) {
	var filters filter.Filters
	if f := body.Filters; f != nil {
		var err error
		filters, err = filter.New(f.Category, f.Vendor, f.Region, f.MinRating, f.InventoryStatus)
		if err != nil {
			return request.Request{}, fmt.Errorf("filters: %w", err)
		}
	}

	cursor, err := pagination.ParseCursor(body.SearchAfter)
	if err != nil {
		return request.Request{}, fmt.Errorf("cursor: %w", err)
	}

	overrides, err := overridesFromBody(body.FeatureFlags)
	if err != nil {
		return request.Request{}, err
	}

	from := 0
	if body.From != nil {
		from = *body.From
	}

	req, err := request.New(request.Params{
		Query:       body.Query,
		Identity:    request.Identity{UserID: body.UserID, UserType: body.UserType},
		Filters:     filters,
		Size:        body.Size,
		From:        from,
		Cursor:      cursor,
		Overrides:   overrides,
		UseHybrid:   body.UseHybridSearch,
		DefaultSize: limits.DefaultSize,
		MaxSize:     limits.MaxSize,
	})
	if err != nil {
		return request.Request{}, fmt.Errorf("search request: %w", err)
	}
	return req, nil
}

func overridesFromBody(ff *FeatureFlags) (flags.Overrides, error) {
	if ff == nil {
		return flags.Overrides{}, nil
	}
	o := flags.Overrides{
		HybridEnabled:          ff.HybridSearchEnabled,
		PersonalizationEnabled: ff.PersonalizationEnabled,
		FuzzyEnabled:           ff.FuzzyMatchingEnabled,
		SynonymEnabled:         ff.SynonymExpansionEnabled,
	}
	if ff.SearchStrategy != nil {
		m, err := mode.Parse(*ff.SearchStrategy)
		if err != nil {
			return flags.Overrides{}, domain.NewValidationError("featureFlags.searchStrategy", err.Error())
		}
		o.Strategy = &m
	}
	return o, nil
}

func searchResponseToBody(resp *searchuc.Response) (SearchResponse, error) {
	results := make([]json.RawMessage, len(resp.Hits))
	for i := range resp.Hits {
		item, err := hitToBody(&resp.Hits[i])
		if err != nil {
			return SearchResponse{}, err
		}
		results[i] = item
	}

	p, err := paginationToBody(resp.Pagination)
	if err != nil {
		return SearchResponse{}, err
	}

	return SearchResponse{
		Query:      resp.Query,
		Total:      SearchTotal{Value: resp.Total.Value, Relation: string(resp.Total.Relation)},
		Results:    results,
		TookMS:     resp.TookMS,
		Pagination: p,
	}, nil
}

func hitToBody(h *result.Hit) (json.RawMessage, error) {
	return withFields(h.Source(), map[string]any{"id": h.ID(), "score": h.Score()})
}

// paginationToBody emits either the offset fields or the cursor fields.
func paginationToBody(info pagination.Info) (Pagination, error) {
	p := Pagination{Size: info.Size}
	if !info.CursorMode() {
		p.From, p.TotalPages = info.From, info.TotalPages
		return p, nil
	}
	p.HasMore = info.HasMore
	if !info.NextCursor.IsZero() {
		raw, err := json.Marshal(info.NextCursor)
		if err != nil {
			return Pagination{}, fmt.Errorf("encode cursor: %w", err)
		}
		p.NextCursor = raw
	}
	return p, nil
}

// withFields flattens extra keys into a stored document. Extra keys win
// over stored fields of the same name.
func withFields(source json.RawMessage, extra map[string]any) (json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(extra)+8)
	if src := bytes.TrimSpace(source); len(src) > 0 && !bytes.Equal(src, []byte("null")) {
		if err := json.Unmarshal(src, &fields); err != nil {
			return nil, fmt.Errorf("decode document source: %w", err)
		}
	}
	for k, v := range extra {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		fields[k] = raw
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return out, nil
}
