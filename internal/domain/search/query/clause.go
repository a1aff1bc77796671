// Package query compiles a search request and profile snapshot into a
// backend-neutral scored boolean query.
package query

// Clause is a closed set of retrieval predicates. Only this package
// can add variants.
type Clause interface {
	clause()
}

// FieldBoost is one field of a multi-field match with its weight.
type FieldBoost struct {
	Field string
	Boost float64
}

// MatchAll matches every document.
type MatchAll struct{}

// MultiMatch is an analyzed full-text match across weighted fields.
type MultiMatch struct {
	Query     string
	Fields    []FieldBoost
	Operator  string
	Type      string
	Fuzziness string // empty disables fuzzy expansion
}

// MatchPhrase matches the query as an exact phrase on one field.
type MatchPhrase struct {
	Field string
	Query string
}

// Match is an analyzed single-field match.
type Match struct {
	Field     string
	Query     string
	Fuzziness string
}

// Term is an exact value match.
type Term struct {
	Field string
	Value string
}

// Terms matches any of the exact values.
type Terms struct {
	Field  string
	Values []string
}

// Range is a lower-bounded numeric range.
type Range struct {
	Field string
	GTE   float64
}

// VectorSimilarity scores documents by cosine similarity plus Offset
// against the stored vector field. It matches every document.
type VectorSimilarity struct {
	Field  string
	Vector []float32
	Offset float64
}

func (MatchAll) clause()         {}
func (MultiMatch) clause()       {}
func (MatchPhrase) clause()      {}
func (Match) clause()            {}
func (Term) clause()             {}
func (Terms) clause()            {}
func (Range) clause()            {}
func (VectorSimilarity) clause() {}

// ScoreMode selects how a scored clause contributes.
type ScoreMode int

const (
	// Relevance adds the clause's own relevance score times Boost.
	Relevance ScoreMode = iota
	// Constant adds Boost whenever the clause matches.
	Constant
)

// Signal names the ranking signal a scored clause represents.
type Signal string

// Ranking signals.
const (
	SignalTitlePhrase        Signal = "title_phrase"
	SignalFuzzyTitle         Signal = "fuzzy_title"
	SignalSemantic           Signal = "semantic"
	SignalCategory           Signal = "preferred_category"
	SignalVendor             Signal = "preferred_vendor"
	SignalRegion             Signal = "region"
	SignalQualityFocus       Signal = "quality_focus"
	SignalPrefersInStock     Signal = "prefers_in_stock"
	SignalPremiumSegment     Signal = "premium_segment"
	SignalUserTypeCategory   Signal = "user_type_category"
	SignalUserTypeVendor     Signal = "user_type_vendor"
	SignalRepurchase         Signal = "repurchase"
	SignalGlobalQuality      Signal = "global_quality"
	SignalGlobalAvailability Signal = "global_availability"
)

// ScoredClause is an optional clause with its weight. Its position in
// Compiled.Optional is its order.
type ScoredClause struct {
	Clause Clause
	Boost  float64
	Mode   ScoreMode
	Signal Signal
}

// SortField is one key of the sort specification.
type SortField struct {
	Field       string
	Desc        bool
	MissingLast bool
}

// ScoreField is the pseudo-field for relevance score.
const ScoreField = "_score"

// Compiled is a backend-neutral boolean query.
type Compiled struct {
	Required           []Clause
	Optional           []ScoredClause
	Filters            []Clause
	MinimumShouldMatch int
	Sort               []SortField
}

// Signals returns the signal of each optional clause in order.
func (c Compiled) Signals() []Signal {
	out := make([]Signal, len(c.Optional))
	for i, sc := range c.Optional {
		out[i] = sc.Signal
	}
	return out
}
