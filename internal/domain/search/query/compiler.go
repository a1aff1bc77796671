package query

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/b2bsearch/internal/domain/flags"
	"github.com/kailas-cloud/b2bsearch/internal/domain/profile"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/filter"
)

// Catalog field names.
const (
	FieldTitle          = "title"
	FieldDescription    = "description"
	FieldVendor         = "vendor"
	FieldVendorKeyword  = "vendor.keyword"
	FieldSearchableText = "searchable_text"
	FieldCategory       = "category"
	FieldRegion         = "region_availability"
	FieldRating         = "supplier_rating"
	FieldInventory      = "inventory_status"
	FieldEmbedding      = "embedding"
	FieldID             = "_id"

	// DefaultSortField is the tiebreak sort key after score.
	DefaultSortField = "title.keyword"
)

// Boost weights.
const (
	BoostTitlePhrase        = 5.0
	BoostFuzzyTitle         = 2.0
	BoostSemantic           = 1.5
	BoostCategory           = 2.5
	BoostVendor             = 1.8
	BoostRegion             = 1.5
	BoostQualityFocus       = 1.3
	BoostPrefersInStock     = 1.2
	BoostPremiumSegment     = 1.1
	BoostRepurchase         = 3.0
	BoostGlobalQuality      = 1.2
	BoostGlobalAvailability = 1.1

	QualityRating = 4.0
	PremiumRating = 4.2

	// SimilarityOffset keeps cosine similarity non-negative.
	SimilarityOffset = 1.0
)

// textFields are the multi_match fields with their weights.
var textFields = []FieldBoost{
	{FieldTitle, 3},
	{FieldDescription, 1.5},
	{FieldVendor, 1},
	{FieldSearchableText, 1},
	{FieldCategory, 2},
}

// Input is everything the compiler reads besides the profile snapshot.
type Input struct {
	Text      string
	Filters   filter.Filters
	UserID    string
	UserType  string
	Vector    []float32
	Flags     flags.FlagSet
	SortField string
}

// Compile builds the scored query for in. The result depends only on
// in and the snapshot contents, and Required is never empty.
func Compile(in Input, snap *profile.Snapshot) Compiled {
	text := strings.TrimSpace(in.Text)

	c := Compiled{
		Required: []Clause{required(text, in.Flags.FuzzyEnabled)},
		Filters:  filters(in.Filters),
		Sort:     sortSpec(in.SortField),
	}

	var opt []ScoredClause
	if text != "" {
		opt = append(opt, ScoredClause{
			Clause: MatchPhrase{Field: FieldTitle, Query: text},
			Boost:  BoostTitlePhrase, Mode: Relevance, Signal: SignalTitlePhrase,
		})
		if in.Flags.FuzzyEnabled {
			opt = append(opt, ScoredClause{
				Clause: Match{Field: FieldTitle, Query: text, Fuzziness: "2"},
				Boost:  BoostFuzzyTitle, Mode: Relevance, Signal: SignalFuzzyTitle,
			})
		}
	}

	if len(in.Vector) > 0 && in.Flags.WantsVector() {
		opt = append(opt, ScoredClause{
			Clause: VectorSimilarity{Field: FieldEmbedding, Vector: in.Vector, Offset: SimilarityOffset},
			Boost:  BoostSemantic, Mode: Relevance, Signal: SignalSemantic,
		})
	}

	if in.Flags.PersonalizationEnabled {
		if p, ok := snap.Profile(in.UserID); ok {
			opt = appendProfile(opt, p)
		} else if agg, ok := snap.UserTypeProfile(in.UserType); ok {
			opt = appendUserType(opt, agg)
		}
	}

	if hist := snap.PurchasedProducts(in.UserID); len(hist) > 0 {
		ids := make([]string, len(hist))
		copy(ids, hist)
		sort.Strings(ids)
		opt = append(opt, constant(Terms{Field: FieldID, Values: ids}, BoostRepurchase, SignalRepurchase))
	}

	opt = append(opt,
		constant(Range{Field: FieldRating, GTE: QualityRating}, BoostGlobalQuality, SignalGlobalQuality),
		constant(Term{Field: FieldInventory, Value: profile.InStock}, BoostGlobalAvailability, SignalGlobalAvailability),
	)

	c.Optional = opt
	if len(opt) > 0 && text != "" {
		c.MinimumShouldMatch = 1
	}
	return c
}

func required(text string, fuzzy bool) Clause {
	if text == "" {
		return MatchAll{}
	}
	fields := make([]FieldBoost, len(textFields))
	copy(fields, textFields)
	mm := MultiMatch{Query: text, Fields: fields, Operator: "or", Type: "best_fields"}
	if fuzzy {
		mm.Fuzziness = "AUTO"
	}
	return mm
}

func appendProfile(opt []ScoredClause, p profile.UserProfile) []ScoredClause {
	for _, cat := range p.PreferredCategories {
		opt = append(opt, constant(Match{Field: FieldCategory, Query: cat}, BoostCategory, SignalCategory))
	}
	for _, v := range p.PreferredVendors {
		opt = append(opt, constant(Term{Field: FieldVendorKeyword, Value: v}, BoostVendor, SignalVendor))
	}
	for _, r := range p.RegionPreferences {
		opt = append(opt, constant(Term{Field: FieldRegion, Value: r}, BoostRegion, SignalRegion))
	}
	if p.QualityFocused {
		opt = append(opt, constant(Range{Field: FieldRating, GTE: QualityRating}, BoostQualityFocus, SignalQualityFocus))
	}
	if p.PrefersInStock {
		opt = append(opt, constant(Term{Field: FieldInventory, Value: profile.InStock}, BoostPrefersInStock, SignalPrefersInStock))
	}
	// No price field in the index; high-rated suppliers stand in for premium.
	if p.PriceSegment == profile.Premium {
		opt = append(opt, constant(Range{Field: FieldRating, GTE: PremiumRating}, BoostPremiumSegment, SignalPremiumSegment))
	}
	return opt
}

func appendUserType(opt []ScoredClause, t profile.UserTypeProfile) []ScoredClause {
	for _, cat := range t.PreferredCategories {
		opt = append(opt, constant(Match{Field: FieldCategory, Query: cat}, BoostCategory, SignalUserTypeCategory))
	}
	for _, v := range t.PreferredVendors {
		opt = append(opt, constant(Term{Field: FieldVendorKeyword, Value: v}, BoostVendor, SignalUserTypeVendor))
	}
	return opt
}

func constant(c Clause, boost float64, s Signal) ScoredClause {
	return ScoredClause{Clause: c, Boost: boost, Mode: Constant, Signal: s}
}

func filters(f filter.Filters) []Clause {
	if f.IsEmpty() {
		return nil
	}
	var out []Clause
	if v := f.Category(); v != "" {
		out = append(out, Match{Field: FieldCategory, Query: v})
	}
	if v := f.Vendor(); v != "" {
		out = append(out, Term{Field: FieldVendorKeyword, Value: v})
	}
	if v := f.Region(); v != "" {
		out = append(out, Term{Field: FieldRegion, Value: v})
	}
	if r := f.MinRating(); r != nil {
		out = append(out, Range{Field: FieldRating, GTE: *r})
	}
	if v := f.InventoryStatus(); v != "" {
		out = append(out, Term{Field: FieldInventory, Value: v})
	}
	return out
}

func sortSpec(field string) []SortField {
	if field == "" {
		field = DefaultSortField
	}
	return []SortField{
		{Field: ScoreField, Desc: true},
		{Field: field, MissingLast: true},
	}
}
