// Package profile derives per-user behavioral profiles from order history.
package profile

// PriceSegment buckets a user's average order value.
type PriceSegment string

// Price segments.
const (
	Budget  PriceSegment = "budget"
	Mid     PriceSegment = "mid"
	Premium PriceSegment = "premium"
)

// OrderFrequency buckets a user's order count.
type OrderFrequency string

// Order frequencies.
const (
	Occasional OrderFrequency = "occasional"
	Regular    OrderFrequency = "regular"
	Frequent   OrderFrequency = "frequent"
	VIP        OrderFrequency = "vip"
)

// InStock is the inventory status counted as available.
const InStock = "in_stock"

// Order is one historical order.
type Order struct {
	UserID       string
	DeliveryMode string
	Items        []LineItem
}

// LineItem is one line of an order. Quantity <= 0 counts as 1.
type LineItem struct {
	ProductID string
	Price     float64
	Quantity  int
}

// Product holds the catalog fields the builder reads.
type Product struct {
	ID                 string
	Title              string
	Category           string
	Vendor             string
	SupplierRating     float64
	InventoryStatus    string
	RegionAvailability []string
}

// UserProfile is the behavioral summary of one user.
type UserProfile struct {
	UserID                 string         `json:"userId"`
	UserType               string         `json:"userType"`
	PreferredCategories    []string       `json:"preferredCategories"`
	PreferredVendors       []string       `json:"preferredVendors"`
	DeliveryModePreference string         `json:"deliveryModePreference,omitempty"`
	RegionPreferences      []string       `json:"regionPreferences"`
	PriceSegment           PriceSegment   `json:"priceSegment"`
	QualityFocused         bool           `json:"qualityFocused"`
	PrefersInStock         bool           `json:"prefersInStock"`
	OrderFrequency         OrderFrequency `json:"orderFrequency"`
	BulkBuyer              bool           `json:"bulkBuyer"`
	AvgOrderValue          float64        `json:"avgOrderValue"`
	OrderCount             int            `json:"orderCount"`
	AvgQuantity            float64        `json:"avgQuantity"`
	AvgRating              float64        `json:"avgRating"`
}

// UserTypeProfile aggregates the preferences of every user of one type.
type UserTypeProfile struct {
	UserType            string   `json:"type"`
	PreferredCategories []string `json:"preferredCategories"`
	PreferredVendors    []string `json:"preferredVendors"`
	AvgOrderValue       float64  `json:"avgOrderValue"`
	UserCount           int      `json:"userCount"`
}

func segmentFor(avgOrderValue float64) PriceSegment {
	switch {
	case avgOrderValue < 200:
		return Budget
	case avgOrderValue > 1000:
		return Premium
	default:
		return Mid
	}
}

func frequencyFor(orders int) OrderFrequency {
	switch {
	case orders >= 10:
		return VIP
	case orders >= 5:
		return Frequent
	case orders >= 2:
		return Regular
	default:
		return Occasional
	}
}
