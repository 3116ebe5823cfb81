package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/aggregator"
	"github.com/feral-file/ff-marketplace-indexer/internal/checkpoint"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/metrics"
	"github.com/feral-file/ff-marketplace-indexer/internal/price"
	"github.com/feral-file/ff-marketplace-indexer/internal/registry"
	"github.com/feral-file/ff-marketplace-indexer/internal/remapper"
	"github.com/feral-file/ff-marketplace-indexer/internal/store"
	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
	"github.com/feral-file/ff-marketplace-indexer/internal/stream"
)

// RetryConfig bounds the retries of transient store and price failures
type RetryConfig struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

// Config holds the processor configuration
type Config struct {
	// Name keys the checkpoint row
	Name            string
	StartVersion    uint64
	WorkerPoolSize  int
	WorkerQueueSize int
	Retry           RetryConfig
}

// Processor indexes marketplace activity from the transaction stream
type Processor interface {
	// Run processes transactions until the context is cancelled or a write fails for good
	Run(ctx context.Context) error
}

// Deps holds the collaborators of the processor
type Deps struct {
	Registry       registry.MarketplaceRegistry
	Source         stream.Source
	EventRemapper  remapper.EventRemapper
	ResourceMapper remapper.ResourceMapper
	Store          store.Store
	Checkpoints    store.CheckpointStore
	Maintainer     aggregator.Maintainer
	Locker         *aggregator.Locker
	Prices         price.Provider
	JCS            adapter.JCS
	Clock          adapter.Clock
	Metrics        *metrics.Metrics
}

type processor struct {
	config Config
	Deps
	reducer reducer

	tracker   *checkpoint.Tracker
	advanceMu sync.Mutex
}

// NewProcessor creates a new processor
func NewProcessor(cfg Config, deps Deps) Processor {
	return &processor{
		config:  cfg,
		Deps:    deps,
		reducer: reducer{jcs: deps.JCS},
	}
}

func (p *processor) Run(ctx context.Context) error {
	runID := ulid.Make().String()

	if err := p.registerMarketplaces(ctx); err != nil {
		return err
	}

	resume, err := p.resumeVersion(ctx)
	if err != nil {
		return err
	}
	last := uint64(0)
	if resume > 0 {
		last = resume - 1
	}
	p.tracker = checkpoint.NewTracker(last)

	logger.InfoCtx(ctx, "Starting marketplace processor",
		zap.String("processor", p.config.Name),
		zap.String("run_id", runID),
		zap.Uint64("resume_version", resume),
		zap.Int("worker_pool_size", p.config.WorkerPoolSize),
		zap.Int("worker_queue_size", p.config.WorkerQueueSize))

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	pool := pond.NewPool(
		p.config.WorkerPoolSize,
		pond.WithQueueSize(p.config.WorkerQueueSize),
		pond.WithContext(runCtx),
	)

	err = p.Source.Run(runCtx, func(ctx context.Context, delivery *stream.Delivery) error {
		tx := delivery.Transaction
		if tx.Version < resume || tx.Version <= p.tracker.Checkpoint() {
			// committed before the checkpoint was written, or below the configured start
			p.ack(ctx, delivery)
			return nil
		}

		if !p.tracker.Dispatch(tx.Version) {
			if dispatched, completed := p.tracker.Lookup(tx.Version); dispatched {
				// redelivery of a version already handed to a worker
				logger.WarnCtx(ctx, "Skipping redelivered version", zap.Uint64("version", tx.Version))
				if completed {
					p.ack(ctx, delivery)
				}
				return nil
			}
			if tx.Version <= p.tracker.Checkpoint() {
				// the redelivered version completed in the meantime
				p.ack(ctx, delivery)
				return nil
			}

			err := fmt.Errorf("%w: version %d after %d", domain.ErrOutOfOrderDelivery, tx.Version, p.tracker.LastDispatched())
			if nakErr := delivery.Nak(); nakErr != nil {
				logger.ErrorCtx(ctx, nakErr, zap.String("message", "Failed to NAK message"))
			}
			logger.ErrorCtx(ctx, err)
			cancel(err)
			return err
		}
		p.Metrics.InFlight.Set(float64(p.tracker.InFlight()))

		pool.Submit(func() {
			if err := p.handle(runCtx, delivery); err != nil {
				cancel(err)
			}
		})
		return nil
	})

	pool.StopAndWait()

	// a cause set by a failed transaction wins over the cancellation it triggered
	if cause := context.Cause(runCtx); cause != nil && ctx.Err() == nil {
		return cause
	}
	return err
}

// registerMarketplaces stores the configured marketplaces
func (p *processor) registerMarketplaces(ctx context.Context) error {
	configs := p.Registry.Marketplaces()
	marketplaces := make([]schema.Marketplace, 0, len(configs))
	for _, config := range configs {
		contract := domain.StandardizeAddress(config.ContractAddress)
		marketplace := schema.Marketplace{
			ID:              domain.MarketplaceID(contract, config.Name),
			Name:            config.Name,
			ContractAddress: contract,
			StartingVersion: int64(config.StartingVersion), //nolint:gosec,G115
		}
		if config.EndingVersion != nil {
			ending := int64(*config.EndingVersion) //nolint:gosec,G115
			marketplace.EndingVersion = &ending
		}
		marketplaces = append(marketplaces, marketplace)
	}

	if err := p.Store.UpsertMarketplaces(ctx, marketplaces); err != nil {
		return fmt.Errorf("failed to register marketplaces: %w", err)
	}

	return nil
}

// resumeVersion is the first version to process: after the checkpoint and not before
// any marketplace or the configured start
func (p *processor) resumeVersion(ctx context.Context) (uint64, error) {
	resume := max(p.Registry.MinStartingVersion(), p.config.StartVersion)

	last, err := p.Checkpoints.Load(ctx, p.config.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if last != nil {
		resume = max(resume, *last+1)
		p.Metrics.CheckpointVersion.Set(float64(*last))
	}

	return resume, nil
}

// handle processes one delivery. The message is acked once the transaction is committed.
// The returned error is fatal
func (p *processor) handle(ctx context.Context, delivery *stream.Delivery) error {
	tx := delivery.Transaction
	start := p.Clock.Now()

	if err := p.process(ctx, tx); err != nil {
		if nakErr := delivery.Nak(); nakErr != nil {
			logger.ErrorCtx(ctx, nakErr, zap.String("message", "Failed to NAK message"))
		}
		if ctx.Err() != nil {
			return nil
		}
		p.Metrics.TransactionsFailed.Inc()
		logger.ErrorCtx(ctx, err, zap.Uint64("version", tx.Version))
		return fmt.Errorf("failed to process version %d: %w", tx.Version, err)
	}

	p.ack(ctx, delivery)
	p.Metrics.TransactionsProcessed.Inc()
	p.Metrics.ProcessingDuration.Observe(p.Clock.Since(start).Seconds())

	return p.complete(ctx, tx)
}

// process remaps, correlates, reduces and writes one transaction
func (p *processor) process(ctx context.Context, tx *domain.Transaction) error {
	arena, stats := p.EventRemapper.Remap(tx)
	p.Metrics.EventsMatched.Add(float64(stats.Matched))
	p.Metrics.EventsDropped.WithLabelValues(metrics.ReasonUnmatched).Add(float64(stats.Unmatched))
	p.Metrics.EventsDropped.WithLabelValues(metrics.ReasonMalformed).Add(float64(stats.Malformed))
	if arena.Len() == 0 {
		return nil
	}

	p.ResourceMapper.Resolve(arena, tx.Changes)
	drafts := arena.Drain()
	if len(drafts) == 0 {
		return nil
	}

	usdRate, err := p.usdRate(ctx, tx, drafts)
	if err != nil {
		return err
	}

	reduction := p.reducer.reduce(drafts, usdRate)
	if reduction.IsEmpty() {
		return nil
	}

	unlock := p.Locker.Lock(reduction.CollectionIDs())
	defer unlock()

	var inserted []schema.Activity
	err = p.retry(ctx, "write", tx.Version, func() error {
		return p.Store.RunInTx(ctx, func(st store.Store) error {
			var err error
			inserted, err = p.write(ctx, st, reduction)
			if err != nil {
				return err
			}
			return p.Maintainer.Apply(ctx, st, reduction.Delta(inserted))
		})
	})
	if err != nil {
		return err
	}

	for _, activity := range inserted {
		p.Metrics.ActivitiesInserted.WithLabelValues(activity.MarketName, activity.TxType).Inc()
	}

	logger.DebugCtx(ctx, "Transaction committed",
		zap.Uint64("version", tx.Version),
		zap.Int("activities", len(reduction.Activities)),
		zap.Int("inserted", len(inserted)),
		zap.Int("listings", len(reduction.Listings)),
		zap.Int("bids", len(reduction.Bids)))

	return nil
}

// write stores the entity rows of the reduction and returns the newly inserted activities
func (p *processor) write(ctx context.Context, st store.Store, reduction *Reduction) ([]schema.Activity, error) {
	if err := st.EnsureCollections(ctx, reduction.Collections); err != nil {
		return nil, err
	}
	if err := st.UpsertNFTs(ctx, reduction.NFTs); err != nil {
		return nil, err
	}
	inserted, err := st.InsertActivities(ctx, reduction.Activities)
	if err != nil {
		return nil, err
	}
	if err := st.UpsertListings(ctx, reduction.Listings); err != nil {
		return nil, err
	}
	if err := st.UpsertBids(ctx, reduction.Bids); err != nil {
		return nil, err
	}
	return inserted, nil
}

// usdRate looks up the APT price at the block time when any activity carries a price
func (p *processor) usdRate(ctx context.Context, tx *domain.Transaction, drafts []*remapper.ActivityDraft) (*decimal.Decimal, error) {
	priced := false
	for _, draft := range drafts {
		if draft.Has(registry.FieldPrice) {
			priced = true
			break
		}
	}
	if !priced {
		return nil, nil
	}

	var rate *decimal.Decimal
	err := p.retry(ctx, "price lookup", tx.Version, func() error {
		var err error
		rate, err = p.Prices.USDPrice(ctx, domain.APTTokenAddress, tx.Timestamp)
		return err
	})
	return rate, err
}

// complete moves the checkpoint over the contiguous prefix of committed versions.
// Advances are serialized so that they reach the store in order
func (p *processor) complete(ctx context.Context, tx *domain.Transaction) error {
	p.advanceMu.Lock()
	defer p.advanceMu.Unlock()

	version, timestamp, advanced := p.tracker.Complete(tx.Version, tx.Timestamp)
	p.Metrics.InFlight.Set(float64(p.tracker.InFlight()))
	if !advanced {
		return nil
	}

	err := p.retry(ctx, "checkpoint", version, func() error {
		_, err := p.Checkpoints.Advance(ctx, p.config.Name, version, timestamp)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to advance checkpoint to %d: %w", version, err)
	}

	p.Metrics.CheckpointVersion.Set(float64(version))
	return nil
}

// retry runs fn with exponential backoff. Exhausting the attempts is reported as ErrTransientIO
func (p *processor) retry(ctx context.Context, operation string, version uint64, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.config.Retry.InitialInterval
	b.MaxInterval = p.config.Retry.MaxInterval
	b.MaxElapsedTime = p.config.Retry.MaxElapsed

	var policy backoff.BackOff = b
	if p.config.Retry.MaxAttempts > 0 {
		policy = backoff.WithMaxRetries(b, p.config.Retry.MaxAttempts)
	}

	attempts := 0
	notify := func(err error, next time.Duration) {
		attempts++
		p.Metrics.WriteRetries.Inc()
		logger.WarnCtx(ctx, "Transient failure, retrying",
			zap.String("operation", operation),
			zap.Uint64("version", version),
			zap.Int("attempt", attempts),
			zap.Duration("next_retry_in", next),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(fn, backoff.WithContext(policy, ctx), notify); err != nil {
		return fmt.Errorf("%w: %s failed after %d attempts: %w", domain.ErrTransientIO, operation, attempts+1, err)
	}

	return nil
}

func (p *processor) ack(ctx context.Context, delivery *stream.Delivery) {
	if err := delivery.Ack(); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to ACK message"))
	}
}
