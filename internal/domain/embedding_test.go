package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    string
	calls  int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = text
	s.calls++
	return s.result, s.err
}

func TestBatchFallback_Success(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{
		Embedding:    []float32{0.1, 0.2},
		PromptTokens: 5,
		TotalTokens:  5,
	}}
	res, err := BatchFallback(context.Background(), inner, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if res.TotalTokens != 15 || res.PromptTokens != 15 {
		t.Errorf("expected 15/15 tokens, got %d/%d", res.PromptTokens, res.TotalTokens)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 calls, got %d", inner.calls)
	}
}

func TestBatchFallback_Error(t *testing.T) {
	innerErr := errors.New("fail")
	_, err := BatchFallback(context.Background(), &stubEmbedder{err: innerErr}, []string{"a"})
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestBatchFallback_Empty(t *testing.T) {
	res, err := BatchFallback(context.Background(), &stubEmbedder{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 0 {
		t.Errorf("expected 0 embeddings, got %d", len(res.Embeddings))
	}
}

func TestValidationError_UnwrapsToInvalidInput(t *testing.T) {
	err := NewValidationError("filters.minRating", "must be between 0 and 5")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatal("expected errors.Is(err, ErrInvalidInput)")
	}
	want := "invalid input: filters.minRating: must be between 0 and 5"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestRetrievalError_MatchesSentinelAndCause(t *testing.T) {
	cause := context.DeadlineExceeded
	err := NewRetrievalError("search", true, cause)
	if !errors.Is(err, ErrRetrievalFailed) {
		t.Error("expected errors.Is(err, ErrRetrievalFailed)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to remain in chain")
	}
	var re *RetrievalError
	if !errors.As(err, &re) || !re.Timeout || re.Op != "search" {
		t.Errorf("unexpected RetrievalError: %+v", re)
	}
}
