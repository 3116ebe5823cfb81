package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/config"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/stream"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	inputFile  = flag.String("input", "", "Newline-delimited transactions to publish, stdin when empty")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadStreamLoaderConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		Environment:     cfg.Environment,
		Service:         "stream-loader",
		BreadcrumbLevel: zapcore.InfoLevel,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	var input io.Reader = os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to open input", zap.Error(err), zap.String("input", *inputFile))
		}
		defer f.Close()
		input = f
	}

	publisher, err := stream.NewPublisher(stream.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		Subject:        cfg.NATS.Subject,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: cfg.NATS.ConnectionName,
		Replicas:       cfg.StreamReplicas,
	}, adapter.NewNatsJetStream())
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer publisher.Close()

	if err := publisher.EnsureStream(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to ensure stream", zap.Error(err), zap.String("stream", cfg.NATS.StreamName))
	}

	started := time.Now()
	result, err := stream.Load(ctx, input, publisher)
	if err != nil {
		logger.ErrorCtx(ctx, err,
			zap.Int("published", result.Published),
			zap.Int("skipped", result.Skipped))
		publisher.Close()
		logger.Flush(2 * time.Second)
		os.Exit(1) //nolint:gocritic
	}

	logger.Info("Transactions loaded",
		zap.Int("published", result.Published),
		zap.Int("skipped", result.Skipped),
		zap.Duration("elapsed", time.Since(started)))
}
