package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/b2bsearch/internal/domain"
	"github.com/kailas-cloud/b2bsearch/internal/domain/flags"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/pagination"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	// MaxIdentityLength bounds userId and userType.
	MaxIdentityLength = 256
	DefaultSize       = 20
	MaxSize           = 100
)

// Identity is who is searching. Both fields are optional.
type Identity struct {
	UserID   string
	UserType string
}

// Request is a validated search request.
type Request struct {
	query     string
	identity  Identity
	filters   filter.Filters
	size      int
	page      pagination.Selector
	overrides flags.Overrides
}

// Params is the unvalidated input for New.
type Params struct {
	Query     string
	Identity  Identity
	Filters   filter.Filters
	Size      *int
	From      int
	Cursor    pagination.Cursor
	Overrides flags.Overrides
	// UseHybrid is the legacy switch. It applies only when no strategy or
	// hybrid override is present, and can only turn hybrid off.
	UseHybrid *bool
	// DefaultSize and MaxSize replace the package limits when positive.
	DefaultSize int
	MaxSize     int
}

// New validates and normalizes search parameters.
// An empty query is a browse request and matches everything.
func New(p Params) (Request, error) {
	query := strings.TrimSpace(p.Query)
	if len(query) > MaxQueryLength {
		return Request{}, domain.NewValidationError("query", fmt.Sprintf("too long (max %d chars)", MaxQueryLength))
	}

	id := Identity{UserID: strings.TrimSpace(p.Identity.UserID), UserType: strings.TrimSpace(p.Identity.UserType)}
	if len(id.UserID) > MaxIdentityLength {
		return Request{}, domain.NewValidationError("userId", fmt.Sprintf("too long (max %d chars)", MaxIdentityLength))
	}
	if len(id.UserType) > MaxIdentityLength {
		return Request{}, domain.NewValidationError("userType", fmt.Sprintf("too long (max %d chars)", MaxIdentityLength))
	}

	maxSize := MaxSize
	if p.MaxSize > 0 {
		maxSize = p.MaxSize
	}
	size := DefaultSize
	if p.DefaultSize > 0 {
		size = min(p.DefaultSize, maxSize)
	}
	if p.Size != nil {
		size = *p.Size
		if size < 1 || size > maxSize {
			return Request{}, domain.NewValidationError("size", fmt.Sprintf("must be between 1 and %d", maxSize))
		}
	}

	page, err := pagination.NewSelector(p.From, p.Cursor, size)
	if err != nil {
		return Request{}, err //nolint:wrapcheck // already a ValidationError
	}

	o := p.Overrides
	if o.Strategy != nil && !o.Strategy.IsValid() {
		return Request{}, domain.NewValidationError("featureFlags.searchStrategy",
			fmt.Sprintf("unknown strategy %q", *o.Strategy))
	}
	if p.UseHybrid != nil && o.Strategy == nil && o.HybridEnabled == nil {
		v := *p.UseHybrid
		o.LegacyHybrid = &v
	}

	return Request{
		query:     query,
		identity:  id,
		filters:   p.Filters,
		size:      size,
		page:      page,
		overrides: o,
	}, nil
}

// Query returns the trimmed query text. Empty means browse.
func (r *Request) Query() string { return r.query }

// Identity returns the caller identity.
func (r *Request) Identity() Identity { return r.identity }

// Filters returns the non-scoring filters.
func (r *Request) Filters() filter.Filters { return r.filters }

// Size returns the page size.
func (r *Request) Size() int { return r.size }

// Page returns the offset or cursor selector.
func (r *Request) Page() pagination.Selector { return r.page }

// Overrides returns the request-level flag overrides.
func (r *Request) Overrides() flags.Overrides { return r.overrides }
