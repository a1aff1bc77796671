// Package source reads the offline inputs of the profile builder: order
// history (JSON or Parquet) and the product catalog export (JSON).
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/b2bsearch/internal/domain/catalog"
	"github.com/kailas-cloud/b2bsearch/internal/domain/profile"
)

// Files loads orders and products from local files.
type Files struct {
	OrdersPath   string
	ProductsPath string
}

// Load reads both files. The order format is picked by extension.
func (f Files) Load(ctx context.Context) ([]profile.Order, map[string]profile.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("load sources: %w", err)
	}
	orders, err := ReadOrders(f.OrdersPath)
	if err != nil {
		return nil, nil, err
	}
	products, err := ReadProducts(f.ProductsPath)
	if err != nil {
		return nil, nil, err
	}
	return orders, ProfileCatalog(products), nil
}

// ReadOrders reads a ".parquet" file of order lines or a JSON array of orders.
func ReadOrders(path string) ([]profile.Order, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return readParquetOrders(path)
	}
	return readJSONOrders(path)
}

type orderJSON struct {
	UserID       string `json:"user_id"`
	DeliveryMode string `json:"delivery_mode"`
	Cart         struct {
		Items []struct {
			ProductID string  `json:"product_id"`
			Price     float64 `json:"price"`
			Quantity  int     `json:"quantity"`
		} `json:"items"`
	} `json:"cart"`
}

func readJSONOrders(path string) ([]profile.Order, error) {
	var raw []orderJSON
	if err := readJSON(path, &raw); err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}

	out := make([]profile.Order, 0, len(raw))
	for _, o := range raw {
		order := profile.Order{
			UserID:       o.UserID,
			DeliveryMode: o.DeliveryMode,
			Items:        make([]profile.LineItem, 0, len(o.Cart.Items)),
		}
		for _, it := range o.Cart.Items {
			order.Items = append(order.Items, profile.LineItem{
				ProductID: it.ProductID,
				Price:     it.Price,
				Quantity:  it.Quantity,
			})
		}
		out = append(out, order)
	}
	return out, nil
}

// ReadProducts reads a JSON array of catalog products.
func ReadProducts(path string) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := readJSON(path, &products); err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	return products, nil
}

// ProfileCatalog indexes products by id with the fields the builder reads.
// Products without an id are dropped.
func ProfileCatalog(products []catalog.Product) map[string]profile.Product {
	out := make(map[string]profile.Product, len(products))
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		out[p.ID] = profile.Product{
			ID:                 p.ID,
			Title:              p.Title,
			Category:           p.Category,
			Vendor:             p.Vendor,
			SupplierRating:     p.SupplierRating,
			InventoryStatus:    p.InventoryStatus,
			RegionAvailability: p.RegionAvailability,
		}
	}
	return out
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
