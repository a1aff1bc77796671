package domain

import (
	"context"
	"sync"
	"testing"
)

func TestEmbeddingUsage_ConcurrentReports(t *testing.T) {
	ctx, u := NewContextWithUsage(context.Background())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			UsageFromContext(ctx).AddTokens(3)
		}()
	}
	wg.Wait()

	if u.Tokens() != 24 || !u.Used() {
		t.Errorf("tokens = %d, used = %v", u.Tokens(), u.Used())
	}
}

func TestEmbeddingUsage_CacheHitCountsAsUsed(t *testing.T) {
	_, u := NewContextWithUsage(context.Background())
	u.AddTokens(0)
	if !u.Used() || u.Tokens() != 0 {
		t.Errorf("tokens = %d, used = %v", u.Tokens(), u.Used())
	}
}

func TestEmbeddingUsage_NilCollector(t *testing.T) {
	u := UsageFromContext(context.Background())
	u.AddTokens(5)
	if u.Used() || u.Tokens() != 0 {
		t.Error("nil collector must report nothing")
	}
}
