package search

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/b2bsearch/internal/domain/search/pagination"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/query"
)

// Elasticsearch query DSL rendering. Bodies are built from maps, which
// encoding/json emits with sorted keys, so equal inputs give equal bytes.

type object = map[string]any

const cosineScript = "cosineSimilarity(params.query_vector, '%s') + %s"

func renderSearch(q query.Compiled, p pagination.Params) object {
	boolQuery := object{
		"must":                 renderAll(q.Required),
		"minimum_should_match": q.MinimumShouldMatch,
	}
	if len(q.Optional) > 0 {
		should := make([]any, 0, len(q.Optional))
		for _, sc := range q.Optional {
			should = append(should, renderScored(sc))
		}
		boolQuery["should"] = should
	}
	if len(q.Filters) > 0 {
		boolQuery["filter"] = renderAll(q.Filters)
	}

	body := object{
		"query":   object{"bool": boolQuery},
		"sort":    renderSort(q.Sort),
		"size":    p.Size,
		"_source": object{"excludes": []string{query.FieldEmbedding}},
	}
	if len(p.SearchAfter) > 0 {
		body["search_after"] = p.SearchAfter
	} else {
		body["from"] = p.From
	}
	return body
}

func renderAll(cs []query.Clause) []any {
	out := make([]any, 0, len(cs))
	for _, c := range cs {
		out = append(out, renderClause(c, 0))
	}
	return out
}

func renderScored(sc query.ScoredClause) object {
	if sc.Mode == query.Constant {
		return object{"constant_score": object{
			"filter": renderClause(sc.Clause, 0),
			"boost":  sc.Boost,
		}}
	}
	return renderClause(sc.Clause, sc.Boost)
}

// renderClause renders c. A non-zero boost scales its relevance score.
func renderClause(c query.Clause, boost float64) object {
	withBoost := func(o object) object {
		if boost != 0 {
			o["boost"] = boost
		}
		return o
	}

	switch v := c.(type) {
	case query.MatchAll:
		return object{"match_all": withBoost(object{})}
	case query.MultiMatch:
		fields := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = f.Field + "^" + strconv.FormatFloat(f.Boost, 'f', -1, 64)
		}
		mm := object{"query": v.Query, "fields": fields}
		if v.Operator != "" {
			mm["operator"] = v.Operator
		}
		if v.Type != "" {
			mm["type"] = v.Type
		}
		if v.Fuzziness != "" {
			mm["fuzziness"] = v.Fuzziness
		}
		return object{"multi_match": withBoost(mm)}
	case query.MatchPhrase:
		return object{"match_phrase": object{v.Field: withBoost(object{"query": v.Query})}}
	case query.Match:
		m := object{"query": v.Query}
		if v.Fuzziness != "" {
			m["fuzziness"] = v.Fuzziness
		}
		return object{"match": object{v.Field: withBoost(m)}}
	case query.Term:
		return object{"term": object{v.Field: withBoost(object{"value": v.Value})}}
	case query.Terms:
		return object{"terms": withBoost(object{v.Field: v.Values})}
	case query.Range:
		return object{"range": object{v.Field: withBoost(object{"gte": v.GTE})}}
	case query.VectorSimilarity:
		return object{"script_score": withBoost(object{
			"query": object{"match_all": object{}},
			"script": object{
				"source": fmt.Sprintf(cosineScript, v.Field, strconv.FormatFloat(v.Offset, 'f', 1, 64)),
				"params": object{"query_vector": v.Vector},
			},
		})}
	default:
		// unreachable: Clause is sealed
		panic(fmt.Sprintf("search: unknown clause %T", c))
	}
}

func renderSort(fields []query.SortField) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		spec := object{"order": "asc"}
		if f.Desc {
			spec["order"] = "desc"
		}
		if f.MissingLast {
			spec["missing"] = "_last"
		}
		out = append(out, object{f.Field: spec})
	}
	return out
}

func renderSuggest(text string, size int) object {
	return object{
		"size": size,
		"query": object{"multi_match": object{
			"query":  text,
			"type":   "phrase_prefix",
			"fields": []string{"title^2", "category", "vendor"},
		}},
		"_source": []string{"title", "category"},
	}
}

// Aggregation names and fields.
const (
	aggVendors    = "vendors"
	aggCategories = "categories"
	aggInventory  = "inventory_status"
	aggAvgRating  = "avg_rating"

	fieldNormalizedCategory = "normalized_category"
)

func renderStats(vendors, categories int) object {
	return object{
		"size":             0,
		"track_total_hits": true,
		"aggs": object{
			aggVendors:    object{"terms": object{"field": query.FieldVendorKeyword, "size": vendors}},
			aggCategories: object{"terms": object{"field": fieldNormalizedCategory, "size": categories}},
			aggInventory:  object{"terms": object{"field": query.FieldInventory}},
			aggAvgRating:  object{"avg": object{"field": query.FieldRating}},
		},
	}
}
