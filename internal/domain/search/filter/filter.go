package filter

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/b2bsearch/internal/domain"
)

// Rating bounds for MinRating.
const (
	MinRatingFloor   = 0.0
	MinRatingCeiling = 5.0
	// MaxValueLength bounds every string filter value.
	MaxValueLength = 256
)

// Filters holds the non-scoring restrictions of a search request.
// Empty strings and a nil MinRating mean "no restriction".
type Filters struct {
	category        string
	vendor          string
	region          string
	minRating       *float64
	inventoryStatus string
}

// New validates and creates Filters. String values are trimmed.
func New(category, vendor, region string, minRating *float64, inventoryStatus string) (Filters, error) {
	f := Filters{
		category:        strings.TrimSpace(category),
		vendor:          strings.TrimSpace(vendor),
		region:          strings.TrimSpace(region),
		inventoryStatus: strings.TrimSpace(inventoryStatus),
	}

	for _, v := range []struct{ name, value string }{
		{"filters.category", f.category},
		{"filters.vendor", f.vendor},
		{"filters.region", f.region},
		{"filters.inventoryStatus", f.inventoryStatus},
	} {
		if len(v.value) > MaxValueLength {
			return Filters{}, domain.NewValidationError(v.name, fmt.Sprintf("too long (max %d chars)", MaxValueLength))
		}
	}

	if minRating != nil {
		r := *minRating
		if r != r || r < MinRatingFloor || r > MinRatingCeiling { // r != r catches NaN
			return Filters{}, domain.NewValidationError("filters.minRating",
				fmt.Sprintf("must be between %g and %g", MinRatingFloor, MinRatingCeiling))
		}
		f.minRating = &r
	}

	return f, nil
}

// Category returns the category filter (analyzed match).
func (f Filters) Category() string { return f.category }

// Vendor returns the vendor filter (exact keyword).
func (f Filters) Vendor() string { return f.vendor }

// Region returns the region filter (exact membership).
func (f Filters) Region() string { return f.region }

// MinRating returns the minimum supplier rating, or nil.
func (f Filters) MinRating() *float64 { return f.minRating }

// InventoryStatus returns the inventory status filter (exact).
func (f Filters) InventoryStatus() string { return f.inventoryStatus }

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	return f.category == "" && f.vendor == "" && f.region == "" && f.minRating == nil && f.inventoryStatus == ""
}
