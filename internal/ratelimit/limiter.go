package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/config"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
)

const (
	defaultKeyPrefix        = "marketplace:limiter:"
	defaultMaxWait          = time.Minute
	defaultFallbackFraction = 0.5
	healthCheckInterval     = 10 * time.Second
	idleRetryInterval       = 100 * time.Millisecond
)

// ErrRedisUnavailable is returned when Redis cannot be reached and the local fallback is disabled
var ErrRedisUnavailable = errors.New("redis rate limiter unavailable")

// Limiter throttles outgoing requests per host. The limit is shared by every replica
// through Redis, a local limiter takes over while Redis is unreachable
//
//go:generate mockgen -source=limiter.go -destination=../mocks/ratelimit_limiter.go -package=mocks -mock_names=Limiter=MockRateLimiter
type Limiter interface {
	// Wait blocks until a request to the host may be made, the context is done or the
	// max wait of the host is exceeded
	Wait(ctx context.Context, host string) error

	// Close stops the Redis health check
	Close()
}

type hostLimiter struct {
	host   string
	config config.RateLimitConfig
	// local takes over while Redis is down, at a fraction of the shared rate
	local *rate.Limiter
	// preFilter keeps a single replica from hammering Redis
	preFilter *rate.Limiter
}

type limiter struct {
	config         config.RateLimiterConfig
	redis          adapter.RedisClient
	distributed    adapter.RedisRateLimiter
	clock          adapter.Clock
	hosts          *xsync.Map[string, *hostLimiter]
	redisAvailable atomic.Bool
	done           chan struct{}
	closeOnce      sync.Once
}

// NewLimiter creates a new host limiter. rc may be nil, in which case only the local
// limiter is used and the fallback must be enabled
func NewLimiter(cfg config.RateLimiterConfig, rc adapter.RedisClient, clock adapter.Clock) (Limiter, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid rate limiter configuration: %w", err)
	}

	l := &limiter{
		config: cfg,
		redis:  rc,
		clock:  clock,
		hosts:  xsync.NewMap[string, *hostLimiter](),
		done:   make(chan struct{}),
	}
	for _, hostConfig := range cfg.Hosts {
		host := normalizeHost(hostConfig.Host)
		l.hosts.Store(host, l.newHostLimiter(host, hostConfig))
	}

	if rc == nil {
		if !cfg.EnableLocalFallback {
			return nil, fmt.Errorf("%w: no redis client and fallback disabled", ErrRedisUnavailable)
		}
		logger.Info("Rate limiter running without redis, using local limits only")
		return l, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	available := true
	if err := rc.Ping(ctx); err != nil {
		if !cfg.EnableLocalFallback {
			return nil, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
		}
		available = false
		logger.Warn("Redis unavailable, will use local fallback", zap.Error(err))
	}
	l.redisAvailable.Store(available)
	l.distributed = rc.NewRateLimiter()

	go l.monitorRedisHealth()

	logger.Info("Rate limiter initialized",
		zap.Int("hosts", len(cfg.Hosts)),
		zap.Int("default_requests_per_second", cfg.Default.RequestsPerSecond),
		zap.Bool("local_fallback", cfg.EnableLocalFallback))

	return l, nil
}

func (l *limiter) newHostLimiter(host string, cfg config.RateLimitConfig) *hostLimiter {
	localRate := max(float64(cfg.RequestsPerSecond)*l.config.LocalFallbackMultiplier, 1.0)
	return &hostLimiter{
		host:      host,
		config:    cfg,
		local:     rate.NewLimiter(rate.Limit(localRate), cfg.Burst),
		preFilter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// limiterFor returns the limiter of the host. Unconfigured hosts get their own limiter
// with the default limit
func (l *limiter) limiterFor(host string) *hostLimiter {
	host = normalizeHost(host)
	if hl, ok := l.hosts.Load(host); ok {
		return hl
	}
	hl, _ := l.hosts.LoadOrStore(host, l.newHostLimiter(host, l.config.Default))
	return hl
}

func (l *limiter) Wait(ctx context.Context, host string) error {
	hl := l.limiterFor(host)

	ctx, cancel := context.WithTimeout(ctx, hl.config.MaxWait)
	defer cancel()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if l.distributed != nil && l.redisAvailable.Load() {
			allowed, retryAfter, err := l.tryDistributed(ctx, hl)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.redisAvailable.Store(false)
				if !l.config.EnableLocalFallback {
					return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
				}
				logger.Warn("Redis rate limiter error, falling back to local",
					zap.String("host", hl.host),
					zap.Error(err))
			case allowed:
				return nil
			default:
				// spread the retries of concurrent waiters over 50-150% of retryAfter
				jitter := time.Duration(float64(retryAfter) * (0.5 + rand.Float64())) //nolint:gosec,G404
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-l.clock.After(jitter):
				}
				continue
			}
		}

		if l.config.EnableLocalFallback {
			return hl.local.Wait(ctx)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.clock.After(idleRetryInterval):
		}
	}
}

// tryDistributed takes a token from the shared limiter. It returns how long to wait when
// no token is available
func (l *limiter) tryDistributed(ctx context.Context, hl *hostLimiter) (bool, time.Duration, error) {
	if err := hl.preFilter.Wait(ctx); err != nil {
		return false, 0, err
	}

	res, err := l.distributed.Allow(ctx, l.config.RedisKeyPrefix+hl.host, redis_rate.PerSecond(hl.config.RequestsPerSecond))
	if err != nil {
		return false, 0, err
	}

	if res.Allowed == 0 {
		logger.Debug("Rate limit token unavailable, waiting",
			zap.String("host", hl.host),
			zap.Duration("retry_after", res.RetryAfter),
			zap.Int("remaining", res.Remaining))
		return false, max(res.RetryAfter, time.Millisecond), nil
	}

	return true, 0, nil
}

func (l *limiter) monitorRedisHealth() {
	ticker := l.clock.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.checkRedis()
		}
	}
}

func (l *limiter) checkRedis() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	err := l.redis.Ping(ctx)
	cancel()

	available := err == nil
	wasAvailable := l.redisAvailable.Swap(available)
	if !wasAvailable && available {
		logger.Info("Redis connection restored, using distributed rate limits")
	}
}

func (l *limiter) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

func validateConfig(cfg *config.RateLimiterConfig) error {
	if cfg.Default.RequestsPerSecond <= 0 {
		return fmt.Errorf("default: requests_per_second must be positive")
	}
	applyDefaults(&cfg.Default)

	for i := range cfg.Hosts {
		host := &cfg.Hosts[i]
		if host.Host == "" {
			return fmt.Errorf("hosts[%d]: host is required", i)
		}
		if host.RequestsPerSecond <= 0 {
			return fmt.Errorf("host %s: requests_per_second must be positive", host.Host)
		}
		applyDefaults(host)
	}

	if cfg.RedisKeyPrefix == "" {
		cfg.RedisKeyPrefix = defaultKeyPrefix
	}
	if cfg.LocalFallbackMultiplier <= 0 {
		cfg.LocalFallbackMultiplier = defaultFallbackFraction
	}

	return nil
}

func applyDefaults(cfg *config.RateLimitConfig) {
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RequestsPerSecond
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = defaultMaxWait
	}
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}
