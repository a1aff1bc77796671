package result

import (
	"encoding/json"
	"testing"
)

func TestNew(t *testing.T) {
	src := json.RawMessage(`{"title":"Nitrile Gloves"}`)
	key := []any{json.Number("12.5"), "nitrile gloves"}

	h := New("P1", 12.5, src, key)

	if h.ID() != "P1" {
		t.Errorf("ID() = %q", h.ID())
	}
	if h.Score() != 12.5 {
		t.Errorf("Score() = %f", h.Score())
	}
	if string(h.Source()) != `{"title":"Nitrile Gloves"}` {
		t.Errorf("Source() = %s", h.Source())
	}
	if len(h.SortKey()) != 2 || h.SortKey()[1] != "nitrile gloves" {
		t.Errorf("SortKey() = %v", h.SortKey())
	}
}
