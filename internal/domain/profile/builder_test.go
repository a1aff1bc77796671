package profile

import (
	"reflect"
	"testing"
	"time"
)

func testCatalog() map[string]Product {
	return map[string]Product{
		"g1": {ID: "g1", Category: "Safety > Gloves", Vendor: "Acme", SupplierRating: 4.5, InventoryStatus: "in_stock", RegionAvailability: []string{"US", "EU"}},
		"g2": {ID: "g2", Category: "Safety > Masks", Vendor: "Acme", SupplierRating: 4.1, InventoryStatus: "in_stock", RegionAvailability: []string{"US"}},
		"t1": {ID: "t1", Category: "Tools > Drills", Vendor: "Bolt", SupplierRating: 3.2, InventoryStatus: "backorder", RegionAvailability: []string{"APAC"}},
		"f1": {ID: "f1", Category: "Food", Vendor: "Fresh", InventoryStatus: "in_stock"},
	}
}

func TestClassifyUserType(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"Safety", SafetyEquipmentBuyer},
		{"Work Gloves", SafetyEquipmentBuyer},
		{"Industrial Pumps", IndustrialEquipmentBuyer},
		{"Power Tools", ToolsBuyer},
		{"Lubricants", ChemicalsBuyer},
		{"Cable Management", ElectricalBuyer},
		{"Food Service", FoodBeverageBuyer},
		{"Office", GeneralBuyer},
		{"", GeneralBuyer},
		// first rule wins
		{"Safety Tools", SafetyEquipmentBuyer},
		{"Industrial Tool Kits", IndustrialEquipmentBuyer},
	}
	for _, tc := range tests {
		if got := ClassifyUserType(tc.category); got != tc.want {
			t.Errorf("ClassifyUserType(%q) = %q, want %q", tc.category, got, tc.want)
		}
	}
}

func TestTopLevelCategory(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{" Safety > Gloves > Nitrile", "Safety"},
		{"Food", "Food"},
		{"", Uncategorized},
		{" > Gloves", Uncategorized},
		{"   ", Uncategorized},
	}
	for _, tc := range tests {
		if got := TopLevelCategory(tc.category); got != tc.want {
			t.Errorf("TopLevelCategory(%q) = %q, want %q", tc.category, got, tc.want)
		}
	}
}

func TestBuild_BlankTopLevelIsUncategorized(t *testing.T) {
	products := map[string]Product{
		"x1": {ID: "x1", Category: " > Gloves", Vendor: "Acme"},
	}
	orders := []Order{{UserID: "u1", Items: []LineItem{{ProductID: "x1", Price: 10, Quantity: 1}}}}
	res := Build(orders, products)

	p, ok := res.Profiles["u1"]
	if !ok {
		t.Fatal("profile missing")
	}
	if !reflect.DeepEqual(p.PreferredCategories, []string{Uncategorized}) {
		t.Errorf("PreferredCategories = %v", p.PreferredCategories)
	}
}

func TestBuild_SingleUser(t *testing.T) {
	orders := []Order{
		{UserID: "u1", DeliveryMode: "express", Items: []LineItem{{ProductID: "g1", Price: 100, Quantity: 2}, {ProductID: "t1", Price: 50}}},
		{UserID: "u1", DeliveryMode: "express", Items: []LineItem{{ProductID: "g2", Price: 30, Quantity: 1}}},
		{UserID: "u1", DeliveryMode: "express", Items: []LineItem{{ProductID: "g1", Price: 10, Quantity: 3}}},
	}
	res := Build(orders, testCatalog())

	p, ok := res.Profiles["u1"]
	if !ok {
		t.Fatal("profile missing")
	}
	if p.OrderCount != 3 {
		t.Errorf("OrderCount = %d", p.OrderCount)
	}
	if p.UserType != SafetyEquipmentBuyer {
		t.Errorf("UserType = %q", p.UserType)
	}
	if !reflect.DeepEqual(p.PreferredCategories, []string{"Safety", "Tools"}) {
		t.Errorf("PreferredCategories = %v", p.PreferredCategories)
	}
	if !reflect.DeepEqual(p.PreferredVendors, []string{"Acme", "Bolt"}) {
		t.Errorf("PreferredVendors = %v", p.PreferredVendors)
	}
	if !reflect.DeepEqual(p.RegionPreferences, []string{"APAC", "EU", "US"}) {
		t.Errorf("RegionPreferences = %v", p.RegionPreferences)
	}
	if p.DeliveryModePreference != "express" {
		t.Errorf("DeliveryModePreference = %q", p.DeliveryModePreference)
	}
	// (250 + 30 + 30) / 3
	if want := 310.0 / 3; p.AvgOrderValue != want {
		t.Errorf("AvgOrderValue = %v, want %v", p.AvgOrderValue, want)
	}
	if p.PriceSegment != Budget {
		t.Errorf("PriceSegment = %q", p.PriceSegment)
	}
	if p.OrderFrequency != Regular {
		t.Errorf("OrderFrequency = %q", p.OrderFrequency)
	}
	// statuses: in_stock x3, backorder x1 -> 0.75
	if !p.PrefersInStock {
		t.Error("expected PrefersInStock")
	}
	// ratings 4.5, 3.2, 4.1, 4.5 -> 4.075
	if !p.QualityFocused {
		t.Errorf("expected QualityFocused, avg %v", p.AvgRating)
	}
	if !reflect.DeepEqual(res.History["u1"], []string{"g1", "g2", "t1"}) {
		t.Errorf("History = %v", res.History["u1"])
	}
}

func TestBuild_DeliveryDominance(t *testing.T) {
	// 3 of 5 is exactly 0.6, not dominant.
	var orders []Order
	for _, m := range []string{"express", "express", "express", "standard", ""} {
		orders = append(orders, Order{UserID: "u", DeliveryMode: m})
	}
	p := Build(orders, nil).Profiles["u"]
	if p.DeliveryModePreference != "" {
		t.Errorf("expected no preference at 60%%, got %q", p.DeliveryModePreference)
	}

	orders = append(orders, Order{UserID: "u", DeliveryMode: "express"})
	p = Build(orders, nil).Profiles["u"]
	if p.DeliveryModePreference != "express" {
		t.Errorf("expected express at 4/6, got %q", p.DeliveryModePreference)
	}
}

func TestBuild_BulkBuyerThreshold(t *testing.T) {
	tests := []struct {
		qty  int
		want bool
	}{
		{30, false},
		{31, true},
	}
	for _, tc := range tests {
		res := Build([]Order{{UserID: "u", Items: []LineItem{{ProductID: "x", Price: 1, Quantity: tc.qty}}}}, nil)
		if got := res.Profiles["u"].BulkBuyer; got != tc.want {
			t.Errorf("qty %d: BulkBuyer = %v, want %v", tc.qty, got, tc.want)
		}
	}
}

func TestBuild_SegmentsAndFrequency(t *testing.T) {
	tests := []struct {
		price  float64
		orders int
		seg    PriceSegment
		freq   OrderFrequency
	}{
		{199, 1, Budget, Occasional},
		{200, 2, Mid, Regular},
		{1000, 5, Mid, Frequent},
		{1001, 10, Premium, VIP},
	}
	for _, tc := range tests {
		var orders []Order
		for i := 0; i < tc.orders; i++ {
			orders = append(orders, Order{UserID: "u", Items: []LineItem{{ProductID: "x", Price: tc.price, Quantity: 1}}})
		}
		p := Build(orders, nil).Profiles["u"]
		if p.PriceSegment != tc.seg || p.OrderFrequency != tc.freq {
			t.Errorf("price %v x%d: got (%s, %s), want (%s, %s)", tc.price, tc.orders, p.PriceSegment, p.OrderFrequency, tc.seg, tc.freq)
		}
	}
}

func TestBuild_MissingCatalogProduct(t *testing.T) {
	res := Build([]Order{{UserID: "u", Items: []LineItem{{ProductID: "ghost", Price: 10, Quantity: 2}}}}, testCatalog())
	p := res.Profiles["u"]
	if len(p.PreferredCategories) != 0 || len(p.PreferredVendors) != 0 {
		t.Errorf("expected no catalog signals, got %v %v", p.PreferredCategories, p.PreferredVendors)
	}
	if p.UserType != GeneralBuyer {
		t.Errorf("UserType = %q", p.UserType)
	}
	if p.AvgOrderValue != 20 {
		t.Errorf("AvgOrderValue = %v", p.AvgOrderValue)
	}
	if p.PrefersInStock || p.QualityFocused {
		t.Error("expected no stock or quality preference without known products")
	}
	if !reflect.DeepEqual(res.History["u"], []string{"ghost"}) {
		t.Errorf("History = %v", res.History["u"])
	}
}

func TestBuild_TopKTieKeepsFirstSeen(t *testing.T) {
	products := map[string]Product{
		"a": {ID: "a", Category: "Zeta", Vendor: "V1"},
		"b": {ID: "b", Category: "Alpha", Vendor: "V2"},
		"c": {ID: "c", Category: "Mid", Vendor: "V3"},
		"d": {ID: "d", Category: "Last", Vendor: "V4"},
	}
	orders := []Order{{UserID: "u", Items: []LineItem{
		{ProductID: "a"}, {ProductID: "b"}, {ProductID: "c"}, {ProductID: "d"}, {ProductID: "d"},
	}}}
	p := Build(orders, products).Profiles["u"]
	if !reflect.DeepEqual(p.PreferredCategories, []string{"Last", "Zeta", "Alpha"}) {
		t.Errorf("PreferredCategories = %v", p.PreferredCategories)
	}
}

func TestBuild_UserTypeAggregates(t *testing.T) {
	orders := []Order{
		{UserID: "u1", Items: []LineItem{{ProductID: "g1", Price: 100, Quantity: 1}}},
		{UserID: "u2", Items: []LineItem{{ProductID: "g2", Price: 300, Quantity: 1}, {ProductID: "t1", Price: 0, Quantity: 1}}},
		{UserID: "u3", Items: []LineItem{{ProductID: "g1", Price: 500, Quantity: 1}}},
		{UserID: "u4", Items: []LineItem{{ProductID: "f1", Price: 5, Quantity: 1}}},
	}
	res := Build(orders, testCatalog())

	agg, ok := res.UserTypes[SafetyEquipmentBuyer]
	if !ok {
		t.Fatal("missing safety aggregate")
	}
	if agg.UserCount != 3 {
		t.Errorf("UserCount = %d", agg.UserCount)
	}
	if want := 300.0; agg.AvgOrderValue != want {
		t.Errorf("AvgOrderValue = %v, want %v", agg.AvgOrderValue, want)
	}
	if !reflect.DeepEqual(agg.PreferredCategories, []string{"Safety", "Tools"}) {
		t.Errorf("PreferredCategories = %v", agg.PreferredCategories)
	}
	if !reflect.DeepEqual(agg.PreferredVendors, []string{"Acme", "Bolt"}) {
		t.Errorf("PreferredVendors = %v", agg.PreferredVendors)
	}
	if res.UserTypes[FoodBeverageBuyer].UserCount != 1 {
		t.Errorf("food aggregate = %+v", res.UserTypes[FoodBeverageBuyer])
	}
}

func TestSnapshot(t *testing.T) {
	orders := []Order{{UserID: "u1", Items: []LineItem{{ProductID: "g1", Price: 10, Quantity: 40}}}}
	for i := 0; i < 10; i++ {
		orders = append(orders, Order{UserID: "u2", Items: []LineItem{{ProductID: "g2", Price: 1}}})
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewSnapshot("v1", now, Build(orders, testCatalog()))

	if s.Len() != 2 || s.Version() != "v1" || !s.BuiltAt().Equal(now) {
		t.Fatalf("unexpected snapshot header: %d %q %v", s.Len(), s.Version(), s.BuiltAt())
	}
	st := s.Stats()
	if st.BulkBuyers != 1 || st.VIP != 1 || st.QualityFocused != 2 {
		t.Errorf("Stats = %+v", st)
	}
	if p, ok := s.Profile("u1"); !ok || p.UserType != SafetyEquipmentBuyer {
		t.Errorf("UserType = %q %v", p.UserType, ok)
	}
	if !reflect.DeepEqual(s.PurchasedProducts("u2"), []string{"g2"}) {
		t.Errorf("PurchasedProducts = %v", s.PurchasedProducts("u2"))
	}
	if _, ok := s.Profile("nobody"); ok {
		t.Error("unexpected profile")
	}
}

func TestSnapshot_NilSafe(t *testing.T) {
	var s *Snapshot
	if _, ok := s.Profile("u"); ok {
		t.Error("nil snapshot returned a profile")
	}
	if s.PurchasedProducts("u") != nil || s.Len() != 0 || s.Version() != "" {
		t.Error("nil snapshot must be empty")
	}
	if Empty().Len() != 0 {
		t.Error("Empty() must have no profiles")
	}
}
