// Package pagination turns backend sort values into forward cursors and
// resolves incoming offsets or cursors into retrieval parameters.
package pagination

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/b2bsearch/internal/domain"
)

// SortArity is the number of sort values in a cursor: score, then the secondary key.
const SortArity = 2

// Cursor is an opaque sort tuple taken from the last hit of a page.
// Elements are string, json.Number or nil. The zero value means "first page".
type Cursor struct {
	values []any
}

// NewCursor validates caller-supplied sort values.
func NewCursor(values []any) (Cursor, error) {
	if len(values) == 0 {
		return Cursor{}, domain.NewValidationError("searchAfter", "must not be empty")
	}
	if len(values) != SortArity {
		return Cursor{}, domain.NewValidationError("searchAfter",
			fmt.Sprintf("must have exactly %d values, got %d", SortArity, len(values)))
	}
	out, err := normalize(values)
	if err != nil {
		return Cursor{}, domain.NewValidationError("searchAfter", err.Error())
	}
	return Cursor{values: out}, nil
}

// ParseCursor decodes a JSON array of primitives. Numbers keep their exact text.
func ParseCursor(raw json.RawMessage) (Cursor, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Cursor{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var values []any
	if err := dec.Decode(&values); err != nil {
		return Cursor{}, domain.NewValidationError("searchAfter", "must be an array of strings or numbers")
	}
	return NewCursor(values)
}

// fromSortKey builds a cursor from backend sort values without arity checks.
func fromSortKey(values []any) Cursor {
	if len(values) == 0 {
		return Cursor{}
	}
	out, err := normalize(values)
	if err != nil {
		return Cursor{}
	}
	return Cursor{values: out}
}

func normalize(values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case nil, string, json.Number:
			out[i] = x
		case float64:
			out[i] = json.Number(strconv.FormatFloat(x, 'g', -1, 64))
		case float32:
			out[i] = json.Number(strconv.FormatFloat(float64(x), 'g', -1, 32))
		case int:
			out[i] = json.Number(strconv.Itoa(x))
		case int64:
			out[i] = json.Number(strconv.FormatInt(x, 10))
		default:
			return nil, fmt.Errorf("value %d has unsupported type %T", i, v)
		}
	}
	return out, nil
}

// IsZero reports whether c is the first-page cursor.
func (c Cursor) IsZero() bool { return len(c.values) == 0 }

// Values returns a copy of the sort values.
func (c Cursor) Values() []any {
	if c.IsZero() {
		return nil
	}
	out := make([]any, len(c.values))
	copy(out, c.values)
	return out
}

// MarshalJSON encodes the cursor as a JSON array, or null when zero.
func (c Cursor) MarshalJSON() ([]byte, error) {
	if c.IsZero() {
		return []byte("null"), nil
	}
	b, err := json.Marshal(c.values)
	if err != nil {
		return nil, fmt.Errorf("marshal cursor: %w", err)
	}
	return b, nil
}
