package price

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/metrics"
	"github.com/feral-file/ff-marketplace-indexer/internal/store"
)

// noPrice is cached when the store knows no price for the bucket
const noPrice = "none"

// Lookup sources reported to metrics
const (
	SourceMemo  = "memo"
	SourceCache = "cache"
	SourceStore = "store"
)

//go:generate mockgen -source=provider.go -destination=../mocks/price.go -package=mocks -mock_names=Provider=MockPriceProvider

// Provider looks up the USD price of a token
type Provider interface {
	// USDPrice returns the latest USD price observed at or before at, nil when none is known
	USDPrice(ctx context.Context, tokenAddress string, at time.Time) (*decimal.Decimal, error)
}

// Config holds the provider configuration
type Config struct {
	CacheTTL       time.Duration
	CacheKeyPrefix string
}

type memoEntry struct {
	bucket int64
	price  *decimal.Decimal
}

type provider struct {
	config  Config
	store   store.Store
	cache   adapter.RedisClient
	metrics *metrics.Metrics
	// last lookup per token; transactions arrive roughly in time order
	memo *xsync.Map[string, memoEntry]
}

// NewProvider creates a price provider backed by the store with an optional redis cache
func NewProvider(config Config, st store.Store, cache adapter.RedisClient, m *metrics.Metrics) Provider {
	return &provider{
		config:  config,
		store:   st,
		cache:   cache,
		metrics: m,
		memo:    xsync.NewMap[string, memoEntry](),
	}
}

// USDPrice resolves the price with minute granularity: memo, then redis, then the store.
// Redis failures are logged and skipped, store failures are returned
func (p *provider) USDPrice(ctx context.Context, tokenAddress string, at time.Time) (*decimal.Decimal, error) {
	bucket := at.UTC().Truncate(time.Minute)

	if entry, ok := p.memo.Load(tokenAddress); ok && entry.bucket == bucket.Unix() {
		p.observe(SourceMemo)
		return entry.price, nil
	}

	key := p.cacheKey(tokenAddress, bucket)
	if price, ok := p.fromCache(ctx, key); ok {
		p.remember(tokenAddress, bucket, price)
		p.observe(SourceCache)
		return price, nil
	}

	// the end of the bucket keeps every lookup inside the minute on the same answer
	tokenPrice, err := p.store.GetLatestTokenPrice(ctx, tokenAddress, bucket.Add(time.Minute-time.Nanosecond))
	if err != nil {
		return nil, fmt.Errorf("failed to get latest token price: %w", err)
	}
	p.observe(SourceStore)

	var price *decimal.Decimal
	if tokenPrice != nil {
		value := tokenPrice.Price
		price = &value
	}

	p.toCache(ctx, key, price)
	p.remember(tokenAddress, bucket, price)

	return price, nil
}

func (p *provider) cacheKey(tokenAddress string, bucket time.Time) string {
	return p.config.CacheKeyPrefix + tokenAddress + ":" + strconv.FormatInt(bucket.Unix(), 10)
}

func (p *provider) fromCache(ctx context.Context, key string) (*decimal.Decimal, bool) {
	if p.cache == nil {
		return nil, false
	}

	value, err := p.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, adapter.ErrCacheMiss) {
			logger.WarnCtx(ctx, "Failed to read price cache", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	if value == noPrice {
		return nil, true
	}

	price, err := decimal.NewFromString(value)
	if err != nil {
		logger.WarnCtx(ctx, "Ignoring invalid cached price", zap.String("key", key), zap.String("value", value))
		return nil, false
	}

	return &price, true
}

func (p *provider) toCache(ctx context.Context, key string, price *decimal.Decimal) {
	if p.cache == nil {
		return
	}

	value := noPrice
	if price != nil {
		value = price.String()
	}

	if err := p.cache.Set(ctx, key, value, p.config.CacheTTL); err != nil {
		logger.WarnCtx(ctx, "Failed to write price cache", zap.String("key", key), zap.Error(err))
	}
}

func (p *provider) remember(tokenAddress string, bucket time.Time, price *decimal.Decimal) {
	p.memo.Store(tokenAddress, memoEntry{bucket: bucket.Unix(), price: price})
}

func (p *provider) observe(source string) {
	if p.metrics != nil {
		p.metrics.PriceLookups.WithLabelValues(source).Inc()
	}
}
