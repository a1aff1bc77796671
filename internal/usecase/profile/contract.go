package profile

import (
	"context"

	domprof "github.com/kailas-cloud/b2bsearch/internal/domain/profile"
)

// Source provides the raw inputs of a build.
type Source interface {
	Load(ctx context.Context) ([]domprof.Order, map[string]domprof.Product, error)
}

// Store persists published snapshots.
type Store interface {
	Publish(ctx context.Context, snap *domprof.Snapshot) error
	Load(ctx context.Context) (*domprof.Snapshot, error)
}
