package profile

import "sort"

// Build limits and thresholds.
const (
	TopCategories         = 3
	TopVendors            = 5
	TypeAggregateTopK     = 3
	DeliveryDominance     = 0.6
	InStockDominance      = 0.7
	QualityRatingFloor    = 4.0
	BulkQuantityThreshold = 30
)

// Result is the output of one build run.
type Result struct {
	Profiles  map[string]UserProfile
	History   map[string][]string
	UserTypes map[string]UserTypeProfile
}

// counter counts keys and remembers first-seen order for tie-breaking.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string, n int) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += n
}

func (c *counter) total() int {
	t := 0
	for _, n := range c.counts {
		t += n
	}
	return t
}

// top returns up to k keys by descending count; ties keep first-seen order.
func (c *counter) top(k int) []string {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	if len(keys) > k {
		keys = keys[:k]
	}
	return keys
}

type accumulator struct {
	orderCount  int
	orderValues []float64
	categories  *counter
	vendors     *counter
	delivery    *counter
	statuses    *counter
	regions     map[string]struct{}
	ratings     []float64
	quantities  []int
	history     map[string]struct{}
}

func newAccumulator() *accumulator {
	return &accumulator{
		categories: newCounter(),
		vendors:    newCounter(),
		delivery:   newCounter(),
		statuses:   newCounter(),
		regions:    make(map[string]struct{}),
		history:    make(map[string]struct{}),
	}
}

func (a *accumulator) addOrder(o Order, catalog map[string]Product) {
	a.orderCount++
	if o.DeliveryMode != "" {
		a.delivery.add(o.DeliveryMode, 1)
	}

	value := 0.0
	for _, it := range o.Items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		value += it.Price * float64(qty)
		a.quantities = append(a.quantities, qty)
		if it.ProductID != "" {
			a.history[it.ProductID] = struct{}{}
		}

		p, ok := catalog[it.ProductID]
		if !ok {
			continue
		}
		a.categories.add(TopLevelCategory(p.Category), qty)
		if p.Vendor != "" {
			a.vendors.add(p.Vendor, 1)
		}
		for _, r := range p.RegionAvailability {
			if r != "" {
				a.regions[r] = struct{}{}
			}
		}
		if p.SupplierRating != 0 {
			a.ratings = append(a.ratings, p.SupplierRating)
		}
		if p.InventoryStatus != "" {
			a.statuses.add(p.InventoryStatus, 1)
		}
	}
	a.orderValues = append(a.orderValues, value)
}

func (a *accumulator) profile(userID string) UserProfile {
	cats := a.categories.top(TopCategories)
	dominant := ""
	if len(cats) > 0 {
		dominant = cats[0]
	}

	p := UserProfile{
		UserID:              userID,
		UserType:            ClassifyUserType(dominant),
		PreferredCategories: cats,
		PreferredVendors:    a.vendors.top(TopVendors),
		RegionPreferences:   sortedKeys(a.regions),
		OrderCount:          a.orderCount,
		AvgOrderValue:       mean(a.orderValues),
		AvgRating:           mean(a.ratings),
		AvgQuantity:         meanInt(a.quantities),
	}

	if modes := a.delivery.top(1); len(modes) == 1 && a.orderCount > 0 {
		if float64(a.delivery.counts[modes[0]])/float64(a.orderCount) > DeliveryDominance {
			p.DeliveryModePreference = modes[0]
		}
	}

	p.PriceSegment = segmentFor(p.AvgOrderValue)
	p.QualityFocused = p.AvgRating >= QualityRatingFloor
	if known := a.statuses.total(); known > 0 {
		p.PrefersInStock = float64(a.statuses.counts[InStock])/float64(known) > InStockDominance
	}
	p.OrderFrequency = frequencyFor(p.OrderCount)
	p.BulkBuyer = p.AvgQuantity > BulkQuantityThreshold

	return p
}

// Build derives profiles, purchase history and user-type aggregates
// from orders. History is sorted and de-duplicated. Items whose product
// is missing from catalog still count toward value, quantity and history
// but contribute no catalog signals.
func Build(orders []Order, catalog map[string]Product) Result {
	var users []string
	acc := make(map[string]*accumulator)
	for _, o := range orders {
		if o.UserID == "" {
			continue
		}
		a, ok := acc[o.UserID]
		if !ok {
			a = newAccumulator()
			acc[o.UserID] = a
			users = append(users, o.UserID)
		}
		a.addOrder(o, catalog)
	}

	res := Result{
		Profiles:  make(map[string]UserProfile, len(users)),
		History:   make(map[string][]string, len(users)),
		UserTypes: make(map[string]UserTypeProfile),
	}

	types := make(map[string]*typeAccumulator)
	var typeOrder []string
	for _, u := range users {
		a := acc[u]
		p := a.profile(u)
		res.Profiles[u] = p
		res.History[u] = sortedKeys(a.history)

		ta, ok := types[p.UserType]
		if !ok {
			ta = newTypeAccumulator()
			types[p.UserType] = ta
			typeOrder = append(typeOrder, p.UserType)
		}
		ta.add(p)
	}

	for _, t := range typeOrder {
		res.UserTypes[t] = types[t].aggregate(t)
	}
	return res
}

type typeAccumulator struct {
	categories []string
	vendors    []string
	seenCats   map[string]struct{}
	seenVends  map[string]struct{}
	values     []float64
}

func newTypeAccumulator() *typeAccumulator {
	return &typeAccumulator{seenCats: make(map[string]struct{}), seenVends: make(map[string]struct{})}
}

func (t *typeAccumulator) add(p UserProfile) {
	t.categories = unionInto(t.categories, t.seenCats, head(p.PreferredCategories, TypeAggregateTopK))
	t.vendors = unionInto(t.vendors, t.seenVends, head(p.PreferredVendors, TypeAggregateTopK))
	t.values = append(t.values, p.AvgOrderValue)
}

func (t *typeAccumulator) aggregate(userType string) UserTypeProfile {
	return UserTypeProfile{
		UserType:            userType,
		PreferredCategories: t.categories,
		PreferredVendors:    t.vendors,
		AvgOrderValue:       mean(t.values),
		UserCount:           len(t.values),
	}
}

func unionInto(dst []string, seen map[string]struct{}, src []string) []string {
	for _, s := range src {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}

func head(s []string, k int) []string {
	if len(s) > k {
		return s[:k]
	}
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func meanInt(v []int) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0
	for _, x := range v {
		sum += x
	}
	return float64(sum) / float64(len(v))
}
