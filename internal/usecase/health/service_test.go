package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

var errDown = errors.New("conn refused")

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		retrieval error
		cache     error
		embedding error
		want      Status
	}{
		{"all healthy", nil, nil, nil, Healthy},
		{"retrieval down", errDown, nil, nil, Unhealthy},
		{"retrieval and cache down", errDown, errDown, nil, Unhealthy},
		{"cache down", nil, errDown, nil, Degraded},
		{"embedding down", nil, nil, errDown, Degraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockPinger{err: tt.retrieval}, &mockPinger{err: tt.cache}, &mockEmbeddingChecker{err: tt.embedding})
			r := svc.Check(context.Background())
			if r.Status != tt.want {
				t.Errorf("status = %q, want %q", r.Status, tt.want)
			}
			if len(r.Checks) != 3 {
				t.Errorf("expected 3 checks, got %v", r.Checks)
			}
			if (tt.retrieval != nil) != (r.Checks[CheckRetrieval] == CheckError) {
				t.Errorf("retrieval check = %q", r.Checks[CheckRetrieval])
			}
		})
	}
}

func TestCheck_OptionalComponents(t *testing.T) {
	r := New(&mockPinger{}, nil, nil).Check(context.Background())
	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[CheckCache]; ok {
		t.Error("unconfigured cache must not be reported")
	}
	if _, ok := r.Checks[CheckEmbedding]; ok {
		t.Error("unconfigured embedding must not be reported")
	}
}

type blockingPinger struct{}

func (blockingPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestCheck_HungComponentTimesOut(t *testing.T) {
	svc := New(&mockPinger{}, blockingPinger{}, nil)
	svc.timeout = 20 * time.Millisecond

	start := time.Now()
	r := svc.Check(context.Background())
	if time.Since(start) > time.Second {
		t.Fatal("check did not honor timeout")
	}
	if r.Status != Degraded || r.Checks[CheckCache] != CheckError {
		t.Errorf("unexpected report %+v", r)
	}
}
