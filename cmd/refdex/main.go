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
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/refdex/internal/config"
	"github.com/kailas-cloud/refdex/internal/db"
	dbBadger "github.com/kailas-cloud/refdex/internal/db/badger"
	dbRedis "github.com/kailas-cloud/refdex/internal/db/redis"
	"github.com/kailas-cloud/refdex/internal/domain"
	domcat "github.com/kailas-cloud/refdex/internal/domain/catalog"
	logpkg "github.com/kailas-cloud/refdex/internal/logger"
	"github.com/kailas-cloud/refdex/internal/metrics"
	catalogrepo "github.com/kailas-cloud/refdex/internal/repository/catalog"
	"github.com/kailas-cloud/refdex/internal/repository/embcache"
	"github.com/kailas-cloud/refdex/internal/repository/resultcache"
	chiTransport "github.com/kailas-cloud/refdex/internal/transport/chi"
	"github.com/kailas-cloud/refdex/internal/transport/hash"
	openaiEmb "github.com/kailas-cloud/refdex/internal/transport/openai"
	"github.com/kailas-cloud/refdex/internal/usecase/classify"
	embeddinguc "github.com/kailas-cloud/refdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/refdex/internal/usecase/health"
	"github.com/kailas-cloud/refdex/internal/usecase/query"
	searchuc "github.com/kailas-cloud/refdex/internal/usecase/search"
	"github.com/kailas-cloud/refdex/internal/version"
)

func main() {
	// .env is optional, for local development
	_ = godotenv.Load()

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

	logger.Info("Starting refdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog_source", cfg.Catalog.Source),
		zap.String("model_provider", cfg.Model.Provider),
		zap.String("embedding_cache", cfg.EmbeddingCache.Driver),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	ctx := context.Background()

	cat, err := loadCatalog(ctx, cfg.Catalog)
	if err != nil {
		logger.Fatal("Failed to load reference catalog", zap.Error(err))
	}
	logger.Info("Reference catalog loaded",
		zap.Int("items", cat.Len()),
		zap.Int("categories", len(cat.Categories())),
		zap.Int("dimensions", cat.Dimensions()),
	)

	classifier, err := classify.New(cfg.Metric(), cfg.Aggregator(), cfg.Classifier.Workers, cfg.Classifier.ChunkSize)
	if err != nil {
		logger.Fatal("Failed to create classifier", zap.Error(err))
	}
	defer classifier.Close()
	classifier.Load(cat)

	cacheStore, err := openCacheStore(ctx, cfg.EmbeddingCache, logger)
	if err != nil {
		logger.Fatal("Embedding cache store not ready", zap.Error(err))
	}
	if cacheStore != nil {
		defer cacheStore.Close()
	}

	// model dimensions default to the catalog's
	dims := cfg.Model.Dimensions
	if dims <= 0 {
		dims = cat.Dimensions()
	}
	modelLock := &embeddinguc.ModelLock{}
	embedder := buildEmbedder(cfg.Model, dims, cacheStore, cfg.EmbeddingCache.TTLSec, modelLock, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Model.Provider),
		zap.String("model", cfg.Model.Model),
		zap.Int("dimensions", dims),
	)

	results, err := resultcache.New(cfg.Cache.Capacity)
	if err != nil {
		logger.Fatal("Failed to create result cache", zap.Error(err))
	}

	processor := query.New(cfg.Query.MaxTextChars, cfg.Query.AllowedExtensions, !cfg.Query.AllowEmpty)
	searchSvc := searchuc.New(cat, processor, embedder, classifier, results, searchuc.Config{
		ResultsPerPage:   cfg.Pagination.ResultsPerPage,
		CategoryPageSize: cfg.Pagination.CategoryPageSize,
		ModelLock:        modelLock,
	})

	// Pass nil interface (not typed nil pointer) when no cache store is configured.
	var cachePinger healthuc.CachePinger
	if cacheStore != nil {
		cachePinger = cacheStore
	}
	healthSvc := healthuc.New(classifier, cachePinger, embedder)

	server := chiTransport.NewServer(searchSvc, healthSvc, logger, cfg.HTTP.MaxUploadBytes)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.SecurityHeadersMiddleware())
	if len(cfg.HTTP.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.HTTP.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
}

// loadCatalog reads the reference catalog from the configured source.
func loadCatalog(ctx context.Context, cfg config.CatalogConfig) (*domcat.Catalog, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.LoadTimeoutSec)*time.Second)
	defer cancel()

	if cfg.Source == "postgres" {
		src, err := catalogrepo.NewPostgresSource(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect catalog database: %w", err)
		}
		defer src.Close()
		return src.Load(ctx)
	}
	return catalogrepo.NewFileSource(cfg.Path).Load(ctx)
}

// openCacheStore connects the embedding cache backend. It returns a nil store
// for driver "none".
func openCacheStore(ctx context.Context, cfg config.EmbeddingCacheConfig, logger *zap.Logger) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case "valkey", "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	case "badger":
		store, err = dbBadger.NewStore(dbBadger.Config{Path: cfg.Path}, logger)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("wait for %s: %w", cfg.Driver, err)
	}
	logger.Info("Connected to embedding cache store", zap.String("driver", cfg.Driver))
	return store, nil
}

// buildEmbedder assembles the decorator chain:
// provider -> Serialized -> Cached -> Instrumented -> Normalized.
func buildEmbedder(
	cfg config.ModelConfig,
	dims int,
	store db.Store,
	ttlSec int,
	lock *embeddinguc.ModelLock,
	logger *zap.Logger,
) *domain.NormalizedEmbedder {
	var (
		base  domain.ImageEmbedder
		model = cfg.Model
	)
	switch cfg.Provider {
	case "openai":
		// Base provider (with transport metrics built-in)
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		})
	default:
		base = hash.NewEmbedder(dims)
		model = "sha256"
	}

	var embedder domain.ImageEmbedder = embeddinguc.NewSerializedEmbedder(base, lock)
	if store != nil {
		namespace := fmt.Sprintf("%s:%s:%d", cfg.Provider, model, dims)
		embedder = embcache.New(embedder, store, namespace,
			time.Duration(ttlSec)*time.Second, metrics.EmbeddingCacheTotal, logger)
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, model, dims, logger)
	return domain.NewNormalizedEmbedder(embedder)
}
