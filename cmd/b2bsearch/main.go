package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/b2bsearch/internal/bootstrap"
	"github.com/kailas-cloud/b2bsearch/internal/config"
	"github.com/kailas-cloud/b2bsearch/internal/domain/flags"
	logpkg "github.com/kailas-cloud/b2bsearch/internal/logger"
	"github.com/kailas-cloud/b2bsearch/internal/metrics"
	searchrepo "github.com/kailas-cloud/b2bsearch/internal/repository/search"
	"github.com/kailas-cloud/b2bsearch/internal/repository/source"
	"github.com/kailas-cloud/b2bsearch/internal/tracing"
	chiTransport "github.com/kailas-cloud/b2bsearch/internal/transport/chi"
	"github.com/kailas-cloud/b2bsearch/internal/transport/elastic"
	healthuc "github.com/kailas-cloud/b2bsearch/internal/usecase/health"
	profileuc "github.com/kailas-cloud/b2bsearch/internal/usecase/profile"
	searchuc "github.com/kailas-cloud/b2bsearch/internal/usecase/search"
	"github.com/kailas-cloud/b2bsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	buildVersion, buildCommit, buildDate := version.Info()
	logger.Info("Starting b2bsearch API server",
		zap.String("version", buildVersion),
		zap.String("commit", buildCommit),
		zap.String("build_date", buildDate),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("retrieval_addrs", cfg.Retrieval.Addresses),
		zap.String("index", cfg.Retrieval.Index),
		zap.String("profiles_source", cfg.Profiles.Source),
	)

	// Register metrics explicitly
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	tp, err := tracing.Setup(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "b2bsearch",
		Version:     buildVersion,
		Environment: env,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to set up tracing", zap.Error(err))
	}

	defaults, err := flags.Defaults(flags.Raw{
		SearchEnabled:          cfg.Flags.SearchEnabled,
		Strategy:               cfg.Flags.Strategy,
		HybridEnabled:          cfg.Flags.HybridEnabled,
		PersonalizationEnabled: cfg.Flags.PersonalizationEnabled,
		FuzzyEnabled:           cfg.Flags.FuzzyEnabled,
		SynonymEnabled:         cfg.Flags.SynonymEnabled,
	})
	if err != nil {
		logger.Fatal("Invalid feature flags", zap.Error(err))
	}
	logger.Info("Feature flags resolved", zap.Any("flags", defaults))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Retrieval backend
	es, err := elastic.New(elastic.Config{
		Addresses: cfg.Retrieval.Addresses,
		Username:  cfg.Retrieval.Username,
		Password:  cfg.Retrieval.Password,
		APIKey:    cfg.Retrieval.APIKey,
		Index:     cfg.Retrieval.Index,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("Failed to create retrieval client", zap.Error(err))
	}

	// Optional Valkey store: embedding cache and published profiles
	store, err := bootstrap.Store(ctx, cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to connect to cache", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	adapter, embChecker := bootstrap.Embedder(cfg.Embedding, cfg.Cache, store, logger)
	logger.Info("Embedder created",
		zap.Bool("enabled", adapter.Enabled()),
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", adapter.Dimensions()),
	)

	// Profiles. Pass nil interfaces, not typed nil pointers.
	var profileStore profileuc.Store
	var cachePinger healthuc.Pinger
	if store != nil {
		profileStore = bootstrap.ProfileStore(store, cfg.Cache, logger)
		cachePinger = store
	}
	files := source.Files{OrdersPath: cfg.Profiles.OrdersPath, ProductsPath: cfg.Profiles.ProductsPath}
	profiles := profileuc.New(files, profileStore, profileuc.Mode(cfg.Profiles.Source), logger)
	if err := profiles.Refresh(ctx); err != nil {
		metrics.DegradedTotal.WithLabelValues(metrics.ReasonProfilesMissing).Inc()
		logger.Warn("Profiles unavailable, serving non-personalized results",
			zap.String("reason", metrics.ReasonProfilesMissing), zap.Error(err))
	}
	go profiles.Run(ctx, time.Duration(cfg.Profiles.RefreshIntervalSec)*time.Second)

	search := searchuc.New(searchrepo.New(es), adapter, profiles, searchuc.Config{
		Defaults:       defaults,
		SortField:      cfg.Retrieval.SortField,
		Timeout:        time.Duration(cfg.Retrieval.RequestTimeoutMS) * time.Millisecond,
		SuggestDefault: cfg.Search.SuggestDefaultSize,
		SuggestMax:     cfg.Search.SuggestMaxSize,
	}, logger)

	var embHealth healthuc.EmbeddingChecker
	if embChecker != nil {
		embHealth = embChecker
	}
	health := healthuc.New(es, cachePinger, embHealth)

	server := chiTransport.NewServer(search, profiles, health, chiTransport.Limits{
		DefaultSize: cfg.Search.DefaultSize,
		MaxSize:     cfg.Search.MaxSize,
	}, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.WriteBindError,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error flushing traces", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
