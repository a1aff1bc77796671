// Package profile owns the live profile snapshot: it rebuilds it from
// order history, publishes it, and swaps it in for readers atomically.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/kailas-cloud/b2bsearch/internal/domain"
	domprof "github.com/kailas-cloud/b2bsearch/internal/domain/profile"
	"github.com/kailas-cloud/b2bsearch/internal/metrics"
	"github.com/kailas-cloud/b2bsearch/internal/tracing"
)

// Mode selects where Refresh takes snapshots from.
type Mode string

const (
	// ModeFiles builds snapshots in-process from the Source.
	ModeFiles Mode = "files"
	// ModeStore loads the version published to the Store.
	ModeStore Mode = "store"
)

// Service holds the current snapshot. Readers never block.
type Service struct {
	source Source
	store  Store
	mode   Mode
	logger *zap.Logger

	current atomic.Pointer[domprof.Snapshot]
	mu      sync.Mutex // serializes rebuilds and loads

	now        func() time.Time
	newVersion func() string
}

// New creates a service serving an empty snapshot until the first refresh.
// store may be nil; ModeStore then behaves like ModeFiles.
func New(source Source, store Store, mode Mode, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		mode = ModeFiles
	}
	s := &Service{
		source:     source,
		store:      store,
		mode:       mode,
		logger:     logger,
		now:        time.Now,
		newVersion: func() string { return uuid.NewString() },
	}
	s.current.Store(domprof.Empty())
	return s
}

// Current returns the live snapshot. It is never nil.
func (s *Service) Current() *domprof.Snapshot {
	return s.current.Load()
}

// Profile returns the profile of userID or domain.ErrNotFound.
func (s *Service) Profile(userID string) (domprof.UserProfile, error) {
	p, ok := s.Current().Profile(userID)
	if !ok {
		return domprof.UserProfile{}, fmt.Errorf("profile %q: %w", userID, domain.ErrNotFound)
	}
	return p, nil
}

// Rebuild builds a new snapshot from the source, publishes it when a
// store is configured, and swaps it in. On any failure the previous
// snapshot stays live.
func (s *Service) Rebuild(ctx context.Context) (stats domprof.Stats, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, end := tracing.StartSpan(ctx, "profiles.rebuild")
	defer func() { end(err) }()

	start := time.Now()
	orders, catalog, err := s.source.Load(ctx)
	if err != nil {
		s.count("error")
		return domprof.Stats{}, fmt.Errorf("load profile sources: %w", err)
	}

	snap := domprof.NewSnapshot(s.newVersion(), s.now().UTC(), domprof.Build(orders, catalog))
	tracing.SetAttributes(ctx, attribute.Int("orders", len(orders)), attribute.Int("users", snap.Len()))

	if s.store != nil {
		if err := s.store.Publish(ctx, snap); err != nil {
			s.count("error")
			return domprof.Stats{}, fmt.Errorf("publish snapshot: %w", err)
		}
	}

	s.swap(snap)
	s.count("success")
	s.logger.Info("Profile snapshot rebuilt",
		zap.String("version", snap.Version()),
		zap.Int("orders", len(orders)),
		zap.Int("users", snap.Len()),
		zap.Int("user_types", snap.Stats().UserTypes),
		zap.Duration("duration", time.Since(start)),
	)
	return snap.Stats(), nil
}

// LoadPublished swaps in the store's current version. It is a no-op
// when that version is already live.
func (s *Service) LoadPublished(ctx context.Context) (err error) {
	if s.store == nil {
		return errors.New("load published profiles: no store configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, end := tracing.StartSpan(ctx, "profiles.load")
	defer func() { end(err) }()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load published profiles: %w", err)
	}
	if snap.Version() == s.Current().Version() {
		return nil
	}
	s.swap(snap)
	s.logger.Info("Profile snapshot loaded",
		zap.String("version", snap.Version()),
		zap.Int("users", snap.Len()),
	)
	return nil
}

// Refresh updates the snapshot according to the configured mode.
func (s *Service) Refresh(ctx context.Context) error {
	if s.mode == ModeStore {
		return s.LoadPublished(ctx)
	}
	_, err := s.Rebuild(ctx)
	return err
}

// Run refreshes on every tick until ctx is done. Failures are logged and
// the previous snapshot keeps serving.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("Profile refresh failed", zap.String("mode", string(s.mode)), zap.Error(err))
			}
		}
	}
}

func (s *Service) swap(snap *domprof.Snapshot) {
	s.current.Store(snap)
	metrics.ProfileSnapshotUsers.Set(float64(snap.Len()))
}

func (s *Service) count(status string) {
	metrics.ProfileRebuildTotal.WithLabelValues(status).Inc()
}
