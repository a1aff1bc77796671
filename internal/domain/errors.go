package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a request rejected before compilation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSearchDisabled signals that search is switched off process-wide.
	ErrSearchDisabled = errors.New("search is disabled")
	// ErrRetrievalFailed signals a retrieval backend timeout or connection failure.
	ErrRetrievalFailed = errors.New("retrieval failed")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingUnavailable signals that no embedder is configured.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)

// ValidationError carries the field and reason of a rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidInput.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidInput.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError creates a validation error for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RetrievalError wraps a backend failure with the operation that failed.
type RetrievalError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrRetrievalFailed.Error(), e.Op, e.Err)
}

// Is reports ErrRetrievalFailed for every RetrievalError while keeping Err in the chain.
func (e *RetrievalError) Is(target error) bool { return target == ErrRetrievalFailed }

func (e *RetrievalError) Unwrap() error { return e.Err }

// NewRetrievalError creates a retrieval failure for op.
func NewRetrievalError(op string, timeout bool, err error) error {
	return &RetrievalError{Op: op, Timeout: timeout, Err: err}
}
