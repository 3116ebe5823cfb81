package ratelimit

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-marketplace-indexer/internal/config"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/mocks"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type testLimiterMocks struct {
	ctrl             *gomock.Controller
	redisClient      *mocks.MockRedisClient
	redisRateLimiter *mocks.MockRedisRateLimiter
	clock            *mocks.MockClock
}

func setupTestLimiter(t *testing.T) *testLimiterMocks {
	ctrl := gomock.NewController(t)
	tm := &testLimiterMocks{
		ctrl:             ctrl,
		redisClient:      mocks.NewMockRedisClient(ctrl),
		redisRateLimiter: mocks.NewMockRedisRateLimiter(ctrl),
		clock:            mocks.NewMockClock(ctrl),
	}

	// health monitor goroutine
	tm.clock.EXPECT().NewTicker(healthCheckInterval).Return(time.NewTicker(time.Hour)).AnyTimes()

	return tm
}

func (tm *testLimiterMocks) tearDown() {
	tm.ctrl.Finish()
}

// newLimiter creates a limiter with Redis reachable or not at startup
func (tm *testLimiterMocks) newLimiter(t *testing.T, cfg config.RateLimiterConfig, pingErr error) *limiter {
	t.Helper()

	tm.redisClient.EXPECT().Ping(gomock.Any()).Return(pingErr)
	tm.redisClient.EXPECT().NewRateLimiter().Return(tm.redisRateLimiter)

	l, err := NewLimiter(cfg, tm.redisClient, tm.clock)
	require.NoError(t, err)
	t.Cleanup(l.Close)

	return l.(*limiter)
}

func testConfig(fallback bool) config.RateLimiterConfig {
	return config.RateLimiterConfig{
		RedisKeyPrefix:      "test:limiter:",
		EnableLocalFallback: fallback,
		Default:             config.RateLimitConfig{RequestsPerSecond: 20},
		Hosts: []config.RateLimitConfig{
			{Host: "ipfs.io", RequestsPerSecond: 5, MaxWait: time.Second},
		},
	}
}

func TestNewLimiter_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.RateLimiterConfig
		want string
	}{
		{
			name: "missing default rate",
			cfg:  config.RateLimiterConfig{EnableLocalFallback: true},
			want: "default: requests_per_second must be positive",
		},
		{
			name: "host without name",
			cfg: config.RateLimiterConfig{
				EnableLocalFallback: true,
				Default:             config.RateLimitConfig{RequestsPerSecond: 1},
				Hosts:               []config.RateLimitConfig{{RequestsPerSecond: 1}},
			},
			want: "hosts[0]: host is required",
		},
		{
			name: "host without rate",
			cfg: config.RateLimiterConfig{
				EnableLocalFallback: true,
				Default:             config.RateLimitConfig{RequestsPerSecond: 1},
				Hosts:               []config.RateLimitConfig{{Host: "arweave.net"}},
			},
			want: "host arweave.net: requests_per_second must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLimiter(tt.cfg, nil, nil)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidateConfig_Defaults(t *testing.T) {
	cfg := testConfig(true)
	require.NoError(t, validateConfig(&cfg))

	assert.Equal(t, 20, cfg.Default.Burst)
	assert.Equal(t, defaultMaxWait, cfg.Default.MaxWait)
	assert.Equal(t, 5, cfg.Hosts[0].Burst)
	assert.Equal(t, time.Second, cfg.Hosts[0].MaxWait)
	assert.Equal(t, defaultFallbackFraction, cfg.LocalFallbackMultiplier)

	cfg.RedisKeyPrefix = ""
	require.NoError(t, validateConfig(&cfg))
	assert.Equal(t, defaultKeyPrefix, cfg.RedisKeyPrefix)
}

func TestNewLimiter_RedisRequired(t *testing.T) {
	tm := setupTestLimiter(t)
	defer tm.tearDown()

	_, err := NewLimiter(testConfig(false), nil, tm.clock)
	assert.ErrorIs(t, err, ErrRedisUnavailable)

	tm.redisClient.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	_, err = NewLimiter(testConfig(false), tm.redisClient, tm.clock)
	assert.ErrorIs(t, err, ErrRedisUnavailable)
}

func TestLimiter_WaitDistributed(t *testing.T) {
	tm := setupTestLimiter(t)
	defer tm.tearDown()

	l := tm.newLimiter(t, testConfig(true), nil)

	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), "test:limiter:ipfs.io", redis_rate.PerSecond(5)).
		Return(&redis_rate.Result{Allowed: 1, Remaining: 4}, nil)
	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), "test:limiter:gateway.example.com", redis_rate.PerSecond(20)).
		Return(&redis_rate.Result{Allowed: 1, Remaining: 19}, nil)

	require.NoError(t, l.Wait(context.Background(), "IPFS.io"))
	require.NoError(t, l.Wait(context.Background(), "gateway.example.com"))
}

func TestLimiter_WaitRetriesAfterLimit(t *testing.T) {
	tm := setupTestLimiter(t)
	defer tm.tearDown()

	l := tm.newLimiter(t, testConfig(true), nil)

	ready := make(chan time.Time)
	close(ready)

	gomock.InOrder(
		tm.redisRateLimiter.EXPECT().
			Allow(gomock.Any(), "test:limiter:ipfs.io", gomock.Any()).
			Return(&redis_rate.Result{Allowed: 0, RetryAfter: 200 * time.Millisecond}, nil),
		tm.clock.EXPECT().After(gomock.Any()).
			DoAndReturn(func(d time.Duration) <-chan time.Time {
				assert.GreaterOrEqual(t, d, 100*time.Millisecond)
				assert.LessOrEqual(t, d, 300*time.Millisecond)
				return ready
			}),
		tm.redisRateLimiter.EXPECT().
			Allow(gomock.Any(), "test:limiter:ipfs.io", gomock.Any()).
			Return(&redis_rate.Result{Allowed: 1}, nil),
	)

	require.NoError(t, l.Wait(context.Background(), "ipfs.io"))
}

func TestLimiter_FallsBackToLocal(t *testing.T) {
	tm := setupTestLimiter(t)
	defer tm.tearDown()

	l := tm.newLimiter(t, testConfig(true), nil)

	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset")).
		Times(1)

	require.NoError(t, l.Wait(context.Background(), "ipfs.io"))
	assert.False(t, l.redisAvailable.Load())

	// redis stays bypassed until the health check sees it again
	require.NoError(t, l.Wait(context.Background(), "ipfs.io"))
}

func TestLimiter_RedisErrorWithoutFallback(t *testing.T) {
	tm := setupTestLimiter(t)
	defer tm.tearDown()

	l := tm.newLimiter(t, testConfig(false), nil)

	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset"))

	err := l.Wait(context.Background(), "ipfs.io")
	assert.ErrorIs(t, err, ErrRedisUnavailable)
}

func TestLimiter_HealthCheckRestoresRedis(t *testing.T) {
	tm := setupTestLimiter(t)
	defer tm.tearDown()

	l := tm.newLimiter(t, testConfig(true), errors.New("connection refused"))
	assert.False(t, l.redisAvailable.Load())

	// unavailable at startup, the local limiter serves the request
	require.NoError(t, l.Wait(context.Background(), "ipfs.io"))

	tm.redisClient.EXPECT().Ping(gomock.Any()).Return(nil)
	l.checkRedis()
	assert.True(t, l.redisAvailable.Load())

	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), "test:limiter:ipfs.io", gomock.Any()).
		Return(&redis_rate.Result{Allowed: 1}, nil)
	require.NoError(t, l.Wait(context.Background(), "ipfs.io"))
}

func TestLimiter_LocalOnlyMaxWait(t *testing.T) {
	cfg := config.RateLimiterConfig{
		EnableLocalFallback: true,
		Default:             config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1, MaxWait: 10 * time.Millisecond},
	}

	l, err := NewLimiter(cfg, nil, nil)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Wait(context.Background(), "arweave.net"))
	// the next token is a second away, past the max wait
	assert.Error(t, l.Wait(context.Background(), "arweave.net"))
	// other hosts have their own bucket
	assert.NoError(t, l.Wait(context.Background(), "ipfs.io"))
}

func TestLimiter_WaitCancelled(t *testing.T) {
	cfg := config.RateLimiterConfig{
		EnableLocalFallback: true,
		Default:             config.RateLimitConfig{RequestsPerSecond: 1},
	}

	l, err := NewLimiter(cfg, nil, nil)
	require.NoError(t, err)
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx, "ipfs.io"), context.Canceled)
}
