package health

import (
	"context"
	"time"
)

// DefaultCheckTimeout bounds one health round across all components.
const DefaultCheckTimeout = 2 * time.Second

// Pinger checks availability of a backend (retrieval index, cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// component is one named dependency check.
type component struct {
	name  string
	check func(ctx context.Context) error
}
