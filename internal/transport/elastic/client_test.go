package elastic

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// newTestServer answers like an Elasticsearch node; the v8 client refuses
// responses without the product header.
func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{Addresses: []string{srv.URL}, Index: "products"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Index: "products"}); err == nil {
		t.Error("expected error without addresses")
	}
	if _, err := New(Config{Addresses: []string{"http://localhost:9200"}}); err == nil {
		t.Error("expected error without index")
	}
}

func TestSearch_PostsBodyToIndex(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/_search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"query":{"match_all":{}}}` {
			t.Errorf("unexpected body %s", body)
		}
		_, _ = w.Write([]byte(`{"took":3,"hits":{"total":{"value":0,"relation":"eq"},"hits":[]}}`))
	})

	raw, err := c.Search(context.Background(), []byte(`{"query":{"match_all":{}}}`))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !strings.Contains(string(raw), `"took":3`) {
		t.Errorf("unexpected response %s", raw)
	}
}

func TestSearch_ErrorResponse(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"parsing_exception","reason":"unknown query [nope]"},"status":400}`))
	})

	_, err := c.Search(context.Background(), []byte(`{}`))
	var ee *Error
	if !errors.As(err, &ee) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ee.Status != 400 || ee.Type != "parsing_exception" || ee.Op != OpSearch {
		t.Errorf("unexpected error fields: %+v", ee)
	}
}

func TestSearch_NoRetry(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := c.Search(context.Background(), []byte(`{}`)); err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected exactly one attempt, got %d", n)
	}
}

func TestSearch_ContextCanceled(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Search(ctx, []byte(`{}`))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestGet(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/_doc/p1":
			_, _ = w.Write([]byte(`{"_id":"p1","found":true,"_source":{"title":"Drill"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"_id":"missing","found":false}`))
		}
	})

	raw, err := c.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !strings.Contains(string(raw), "Drill") {
		t.Errorf("unexpected body %s", raw)
	}

	if _, err := c.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPing(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		code    int
		wantErr error
	}{
		{"green", "green", http.StatusOK, nil},
		{"yellow serves reads", "yellow", http.StatusOK, nil},
		{"red", "red", http.StatusOK, ErrClusterRed},
		{"unavailable", "", http.StatusServiceUnavailable, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/_cluster/health" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(`{"status":"` + tt.status + `"}`))
			})

			err := c.Ping(context.Background())
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.code != http.StatusOK:
				var ee *Error
				if !errors.As(err, &ee) || ee.Status != tt.code {
					t.Errorf("expected status error, got %v", err)
				}
			case err != nil:
				t.Errorf("Ping: %v", err)
			}
		})
	}
}
