// Package catalog holds the read-side catalog types: documents,
// autocomplete suggestions and index statistics.
package catalog

import (
	"encoding/json"
	"strings"
)

// Document is one stored catalog product.
type Document struct {
	ID     string
	Source json.RawMessage
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// Bucket is one term aggregation bucket.
type Bucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Stats summarizes the catalog index.
type Stats struct {
	TotalProducts   int64    `json:"totalProducts"`
	Vendors         []Bucket `json:"vendors"`
	Categories      []Bucket `json:"categories"`
	InventoryStatus []Bucket `json:"inventoryStatus"`
	AvgRating       *float64 `json:"avgRating"`
}

// Product is a catalog record as exported by the ingestion pipeline.
type Product struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	Vendor             string   `json:"vendor,omitempty"`
	Category           string   `json:"category,omitempty"`
	SearchableText     string   `json:"searchable_text,omitempty"`
	SupplierRating     float64  `json:"supplier_rating,omitempty"`
	InventoryStatus    string   `json:"inventory_status,omitempty"`
	RegionAvailability []string `json:"region_availability,omitempty"`
}

// DocumentText is the text embedded for a product: searchable_text when
// present, otherwise title, description, vendor and category joined.
func (p Product) DocumentText() string {
	if s := strings.TrimSpace(p.SearchableText); s != "" {
		return s
	}
	parts := make([]string, 0, 4)
	for _, s := range []string{p.Title, p.Description, p.Vendor, p.Category} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
