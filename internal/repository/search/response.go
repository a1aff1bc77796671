package search

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/b2bsearch/internal/domain/catalog"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/result"
)

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total *struct {
			Value    int64  `json:"value"`
			Relation string `json:"relation"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Score  *float64        `json:"_score"`
			Source json.RawMessage `json:"_source"`
			Sort   []any           `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// decode reads raw with UseNumber so sort values keep their exact text.
func decode(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseSearch(raw []byte) (result.Page, error) {
	var resp searchResponse
	if err := decode(raw, &resp); err != nil {
		return result.Page{}, err
	}

	page := result.Page{TookMS: resp.Took, Total: result.Total{Relation: result.Exact}}
	if t := resp.Hits.Total; t != nil {
		page.Total.Value = t.Value
		if result.Relation(t.Relation) == result.LowerBound {
			page.Total.Relation = result.LowerBound
		}
	}

	page.Hits = make([]result.Hit, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		score := 0.0
		if h.Score != nil {
			score = *h.Score
		}
		page.Hits = append(page.Hits, result.New(h.ID, score, h.Source, h.Sort))
	}
	return page, nil
}

type termsAgg struct {
	Buckets []struct {
		Key      any   `json:"key"`
		DocCount int64 `json:"doc_count"`
	} `json:"buckets"`
}

func (a termsAgg) buckets() []catalog.Bucket {
	out := make([]catalog.Bucket, 0, len(a.Buckets))
	for _, b := range a.Buckets {
		out = append(out, catalog.Bucket{Key: fmt.Sprint(b.Key), Count: b.DocCount})
	}
	return out
}

func parseStats(raw []byte) (catalog.Stats, error) {
	var resp struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
		} `json:"hits"`
		Aggregations struct {
			Vendors    termsAgg `json:"vendors"`
			Categories termsAgg `json:"categories"`
			Inventory  termsAgg `json:"inventory_status"`
			AvgRating  struct {
				Value *float64 `json:"value"`
			} `json:"avg_rating"`
		} `json:"aggregations"`
	}
	if err := decode(raw, &resp); err != nil {
		return catalog.Stats{}, err
	}

	aggs := resp.Aggregations
	return catalog.Stats{
		TotalProducts:   resp.Hits.Total.Value,
		Vendors:         aggs.Vendors.buckets(),
		Categories:      aggs.Categories.buckets(),
		InventoryStatus: aggs.Inventory.buckets(),
		AvgRating:       aggs.AvgRating.Value,
	}, nil
}
