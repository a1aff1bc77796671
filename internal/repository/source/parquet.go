package source

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/b2bsearch/internal/domain/profile"
)

// OrderLine is one row of the flat order-line export. Rows sharing an
// OrderID form one order.
type OrderLine struct {
	OrderID      string  `parquet:"order_id"`
	UserID       string  `parquet:"user_id"`
	DeliveryMode string  `parquet:"delivery_mode"`
	ProductID    string  `parquet:"product_id"`
	Price        float64 `parquet:"price"`
	Quantity     int64   `parquet:"quantity"`
}

func readParquetOrders(path string) ([]profile.Order, error) {
	rows, err := parquet.ReadFile[OrderLine](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return GroupOrderLines(rows), nil
}

// GroupOrderLines folds lines into orders in first-seen order. The
// user and delivery mode of an order come from its first line.
func GroupOrderLines(rows []OrderLine) []profile.Order {
	idx := make(map[string]int)
	var out []profile.Order
	for _, r := range rows {
		i, ok := idx[r.OrderID]
		if !ok {
			i = len(out)
			idx[r.OrderID] = i
			out = append(out, profile.Order{UserID: r.UserID, DeliveryMode: r.DeliveryMode})
		}
		if r.ProductID == "" {
			continue
		}
		out[i].Items = append(out[i].Items, profile.LineItem{
			ProductID: r.ProductID,
			Price:     r.Price,
			Quantity:  int(r.Quantity),
		})
	}
	return out
}
