// Package bootstrap assembles the components shared by the API server and
// the offline catalog tool from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/b2bsearch/internal/config"
	dbRedis "github.com/kailas-cloud/b2bsearch/internal/db/redis"
	"github.com/kailas-cloud/b2bsearch/internal/domain"
	"github.com/kailas-cloud/b2bsearch/internal/metrics"
	"github.com/kailas-cloud/b2bsearch/internal/repository/embcache"
	"github.com/kailas-cloud/b2bsearch/internal/repository/profilestore"
	openaiEmb "github.com/kailas-cloud/b2bsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/b2bsearch/internal/usecase/embedding"
)

// Store connects to the configured Valkey and waits until it answers.
// It returns nil without error when no cache addresses are configured.
func Store(ctx context.Context, cfg config.CacheConfig) (*dbRedis.Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, nil
	}
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeoutSec)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("cache not ready: %w", err)
	}
	return store, nil
}

// ProfileStore returns the published-snapshot repository over store.
func ProfileStore(store *dbRedis.Store, cfg config.CacheConfig, logger *zap.Logger) *profilestore.Repo {
	return profilestore.New(store, profilestore.Config{
		KeyPrefix: cfg.KeyPrefix,
		RetainTTL: time.Duration(cfg.ProfileRetainSec) * time.Second,
	}, logger)
}

// Embedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Adapter.
// A disabled embedding config yields an adapter that never produces vectors
// and a nil checker. store may be nil, which skips the cache.
func Embedder(
	cfg config.EmbeddingConfig,
	cache config.CacheConfig,
	store *dbRedis.Store,
	logger *zap.Logger,
) (*embeddinguc.Adapter, *embeddinguc.InstrumentedEmbedder) {
	adapterCfg := embeddinguc.Config{
		Dimensions:    cfg.Dimensions,
		MaxInputChars: cfg.MaxInputChars,
		BatchSize:     cfg.BatchSize,
		Concurrency:   cfg.Concurrency,
		RateLimit:     cfg.RateLimitRPS,
		RateBurst:     cfg.RateLimitBurst,
	}
	if cfg.QueryPrefix != nil {
		adapterCfg.QueryPrefix = *cfg.QueryPrefix
	}
	if !cfg.Enabled {
		return embeddinguc.NewAdapter(nil, adapterCfg, logger), nil
	}

	// Base provider (with transport metrics built-in)
	var embedder domain.Embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
		Provider: cfg.Provider,
		Logger:   logger,
	})

	if store != nil {
		embedder = embcache.New(embedder, store, embcache.Config{
			KeyPrefix: cache.KeyPrefix,
			Model:     cfg.Model,
			TTL:       time.Duration(cache.EmbeddingTTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	instrumented := embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger)
	return embeddinguc.NewAdapter(instrumented, adapterCfg, logger), instrumented
}
