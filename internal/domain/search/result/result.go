package result

import "encoding/json"

// Relation tells whether a total hit count is exact or a lower bound.
type Relation string

// Relation values, as reported by the retrieval backend.
const (
	Exact      Relation = "eq"
	LowerBound Relation = "gte"
)

// Total is the number of documents matching a query.
type Total struct {
	Value    int64
	Relation Relation
}

// Hit is a single ranked search hit.
type Hit struct {
	id      string
	score   float64
	source  json.RawMessage
	sortKey []any
}

// New creates a ranked hit. sortKey holds the backend sort values
// (string, json.Number or nil) in sort order.
func New(id string, score float64, source json.RawMessage, sortKey []any) Hit {
	return Hit{id: id, score: score, source: source, sortKey: sortKey}
}

// ID returns the document identifier.
func (h *Hit) ID() string { return h.id }

// Score returns the boost-adjusted relevance score.
func (h *Hit) Score() float64 { return h.score }

// Source returns the stored document fields as raw JSON.
func (h *Hit) Source() json.RawMessage { return h.source }

// SortKey returns the sort values used to continue after this hit.
func (h *Hit) SortKey() []any { return h.sortKey }

// Page is one page of ranked hits.
type Page struct {
	Total  Total
	Hits   []Hit
	TookMS int64
}
