package search

import (
	"context"
	"encoding/json"
	"testing"
)

// mockBackend implements the consumer interface for tests.
type mockBackend struct {
	searchFn func(ctx context.Context, body []byte) ([]byte, error)
	getFn    func(ctx context.Context, id string) ([]byte, error)

	lastBody []byte
}

func (m *mockBackend) Search(ctx context.Context, body []byte) ([]byte, error) {
	m.lastBody = body
	if m.searchFn != nil {
		return m.searchFn(ctx, body)
	}
	return []byte(`{"took":1,"hits":{"total":{"value":0,"relation":"eq"},"hits":[]}}`), nil
}

func (m *mockBackend) Get(ctx context.Context, id string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return []byte(`{"_id":"` + id + `","found":true,"_source":{}}`), nil
}

func newTestRepo(t *testing.T) (*Repo, *mockBackend) {
	t.Helper()
	mb := &mockBackend{}
	return New(mb), mb
}

// decodeBody unmarshals a rendered body for structural assertions.
func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("invalid body JSON: %v\n%s", err, body)
	}
	return out
}

// dig walks nested objects and arrays by key or index.
func dig(t *testing.T, v any, path ...any) any {
	t.Helper()
	for _, p := range path {
		switch k := p.(type) {
		case string:
			m, ok := v.(map[string]any)
			if !ok {
				t.Fatalf("expected object at %q, got %T", k, v)
			}
			v = m[k]
		case int:
			a, ok := v.([]any)
			if !ok || k >= len(a) {
				t.Fatalf("expected array with index %d, got %T", k, v)
			}
			v = a[k]
		}
	}
	return v
}
