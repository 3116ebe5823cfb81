package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/aggregator"
	"github.com/feral-file/ff-marketplace-indexer/internal/config"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/metadata"
	"github.com/feral-file/ff-marketplace-indexer/internal/metrics"
	"github.com/feral-file/ff-marketplace-indexer/internal/price"
	"github.com/feral-file/ff-marketplace-indexer/internal/processor"
	"github.com/feral-file/ff-marketplace-indexer/internal/ratelimit"
	"github.com/feral-file/ff-marketplace-indexer/internal/registry"
	"github.com/feral-file/ff-marketplace-indexer/internal/remapper"
	"github.com/feral-file/ff-marketplace-indexer/internal/store"
	"github.com/feral-file/ff-marketplace-indexer/internal/stream"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadIndexerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		Environment:     cfg.Environment,
		Service:         "marketplace-indexer",
		BreadcrumbLevel: zapcore.InfoLevel,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Marketplace Indexer")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if cfg.Database.ReadHost != "" {
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.Open(cfg.Database.ReadDSN())},
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			logger.FatalCtx(ctx, "Failed to register read replica", zap.Error(err), zap.String("read_host", cfg.Database.ReadHost))
		}
		logger.InfoCtx(ctx, "Using read replica", zap.String("read_host", cfg.Database.ReadHost))
	}
	err = store.ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
		cfg.Database.ConnMaxIdleTime)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize stores
	dataStore := store.NewPGStore(db)
	checkpointStore := store.NewCheckpointStore(db)

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jcsAdapter := adapter.NewJCS()
	natsJS := adapter.NewNatsJetStream()
	fileSystem := adapter.NewFileSystem()

	// Load marketplace registry
	marketplaceRegistry, err := registry.NewMarketplaceRegistryLoader(fileSystem).Load(cfg.MarketplacesPath)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load marketplace registry", zap.Error(err), zap.String("path", cfg.MarketplacesPath))
	}
	logger.InfoCtx(ctx, "Loaded marketplace registry",
		zap.Int("marketplaces", len(marketplaceRegistry.Marketplaces())),
		zap.Uint64("min_starting_version", marketplaceRegistry.MinStartingVersion()))

	// Redis backs the price cache and the metadata rate limits; both degrade without it
	redisClient := adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}()

	// Metrics endpoint
	indexerMetrics := metrics.New(prometheus.DefaultRegisterer)
	metricsServer := &http.Server{
		Addr:              cfg.Metrics.ListenAddr,
		Handler:           metrics.Handler(prometheus.DefaultGatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorCtx(ctx, err, zap.String("component", "metrics"))
		}
	}()
	logger.InfoCtx(ctx, "Serving metrics", zap.String("listen_addr", cfg.Metrics.ListenAddr))

	// Initialize stream source
	source, err := stream.NewSource(stream.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		Subject:        cfg.NATS.Subject,
		ConsumerName:   cfg.NATS.ConsumerName,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: cfg.NATS.ConnectionName,
		AckWait:        cfg.NATS.AckWait,
		MaxAckPending:  cfg.NATS.MaxAckPending,
	}, natsJS)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer source.Close()
	logger.InfoCtx(ctx, "Connected to NATS JetStream")

	maintainer := aggregator.NewMaintainer()
	locker := aggregator.NewLocker()

	marketplaceProcessor := processor.NewProcessor(processor.Config{
		Name:            cfg.Processor.Name,
		StartVersion:    cfg.Processor.StartVersion,
		WorkerPoolSize:  cfg.Worker.WorkerPoolSize,
		WorkerQueueSize: cfg.Worker.WorkerQueueSize,
		Retry: processor.RetryConfig{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
			MaxElapsed:      cfg.Retry.MaxElapsed,
		},
	}, processor.Deps{
		Registry:       marketplaceRegistry,
		Source:         source,
		EventRemapper:  remapper.NewEventRemapper(marketplaceRegistry),
		ResourceMapper: remapper.NewResourceMapper(),
		Store:          dataStore,
		Checkpoints:    checkpointStore,
		Maintainer:     maintainer,
		Locker:         locker,
		Prices: price.NewProvider(price.Config{
			CacheTTL:       cfg.Price.CacheTTL,
			CacheKeyPrefix: cfg.Price.CacheKeyPrefix,
		}, dataStore, redisClient, indexerMetrics),
		JCS:     jcsAdapter,
		Clock:   clockAdapter,
		Metrics: indexerMetrics,
	})

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := marketplaceProcessor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	if cfg.Metadata.Enabled {
		limiter, err := ratelimit.NewLimiter(cfg.RateLimiter, redisClient, clockAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create rate limiter", zap.Error(err))
		}
		defer limiter.Close()

		resolver := metadata.NewResolver(
			adapter.NewHTTPClient(cfg.Metadata.HTTPTimeout, cfg.Metadata.MaxRetryTime),
			limiter,
			jcsAdapter,
			metadata.Gateways{
				IPFS:    cfg.Metadata.URI.IPFSGateways,
				Arweave: cfg.Metadata.URI.ArweaveGateways,
			},
			cfg.Metadata.MaxBodySize)

		metadataWorker := metadata.NewWorker(metadata.Config{
			BatchSize:       cfg.Metadata.BatchSize,
			PollInterval:    cfg.Metadata.PollInterval,
			WorkerPoolSize:  cfg.Metadata.Worker.WorkerPoolSize,
			WorkerQueueSize: cfg.Metadata.Worker.WorkerQueueSize,
		}, dataStore, resolver, maintainer, locker, clockAdapter, indexerMetrics)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metadataWorker.Run(ctx); err != nil {
				logger.ErrorCtx(ctx, err, zap.String("component", "metadata"))
			}
		}()
	}

	// Wait for shutdown signal or a fatal processing error
	exitCode := 0
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "processor"))
		exitCode = 1
	}
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Failed to shut down metrics server", zap.Error(err))
	}

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Marketplace Indexer stopped", zap.Int("exit_code", exitCode))

	if exitCode != 0 {
		logger.Flush(2 * time.Second)
		os.Exit(exitCode) //nolint:gocritic
	}
}
