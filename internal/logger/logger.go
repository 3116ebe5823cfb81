package logger

import (
	"context"
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// log is the global zap logger instance, a no-op until Initialize is called
	log = zap.NewNop()
	// sentryClient is set when errors are reported to Sentry
	sentryClient *sentry.Client
)

// Config holds logger configuration
type Config struct {
	Debug bool
	// Service is attached to every entry and to every Sentry event as the service tag
	Service         string
	Environment     string
	SentryDSN       string
	SentryClient    *sentry.Client
	BreadcrumbLevel zapcore.Level
	Tags            map[string]string
}

// Initialize builds the global logger. Errors are also reported to Sentry when a DSN or
// a client is configured
func Initialize(cfg Config) error {
	base, err := newBaseLogger(cfg)
	if err != nil {
		return err
	}

	client, err := newSentryClient(cfg)
	if err != nil {
		return err
	}
	if client == nil {
		log = base
		return nil
	}

	core, err := zapsentry.NewCore(zapsentry.Configuration{
		Level:             zapcore.ErrorLevel,
		EnableBreadcrumbs: true,
		BreadcrumbLevel:   breadcrumbLevel(cfg.BreadcrumbLevel),
		Tags:              sentryTags(cfg),
	}, zapsentry.NewSentryClientFromClient(client))
	if err != nil {
		return err
	}

	sentryClient = client
	log = zapsentry.AttachCoreToLogger(core, base)
	return nil
}

func newBaseLogger(cfg Config) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Debug {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	base, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	if cfg.Service != "" {
		base = base.With(zap.String("service", cfg.Service))
	}
	return base, nil
}

// newSentryClient returns nil when Sentry is not configured
func newSentryClient(cfg Config) (*sentry.Client, error) {
	if cfg.SentryClient != nil {
		return cfg.SentryClient, nil
	}
	if cfg.SentryDSN == "" {
		return nil, nil
	}
	return sentry.NewClient(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Debug:       cfg.Debug,
		Environment: cfg.Environment,
	})
}

func breadcrumbLevel(level zapcore.Level) zapcore.Level {
	if level == zapcore.InvalidLevel {
		return zapcore.InfoLevel
	}
	return level
}

func sentryTags(cfg Config) map[string]string {
	if cfg.Service == "" {
		return cfg.Tags
	}
	tags := make(map[string]string, len(cfg.Tags)+1)
	for k, v := range cfg.Tags {
		tags[k] = v
	}
	tags["service"] = cfg.Service
	return tags
}

// Flush waits for buffered Sentry events to be sent
func Flush(timeout time.Duration) {
	if sentryClient != nil {
		sentryClient.Flush(timeout)
	}
}

// FromContext returns the logger carrying the Sentry scope of the context
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return log
	}
	return log.With(zapsentry.Context(ctx))
}

// Default returns the global logger
func Default() *zap.Logger {
	return log
}

// Named returns a child logger for one component, carrying the given fields on every entry
func Named(component string, fields ...zap.Field) *zap.Logger {
	return log.Named(component).With(fields...)
}

func message(err error) string {
	if err == nil {
		return "error occurred"
	}
	return err.Error()
}

func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

func InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Info(msg, fields...)
}

// Error logs the error as the message. At error level the entry reaches Sentry
func Error(err error, fields ...zap.Field) {
	log.Error(message(err), fields...)
}

func ErrorCtx(ctx context.Context, err error, fields ...zap.Field) {
	FromContext(ctx).Error(message(err), fields...)
}

// Fatal logs and exits the process
func Fatal(msg string, fields ...zap.Field) {
	log.Fatal(msg, fields...)
}

func FatalCtx(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Fatal(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

func WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Warn(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	log.Debug(msg, fields...)
}

func DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Debug(msg, fields...)
}
