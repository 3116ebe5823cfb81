package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/aggregator"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/metrics"
	"github.com/feral-file/ff-marketplace-indexer/internal/store"
	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
)

// Fetch outcomes
const (
	OutcomeFetched = "fetched"
	OutcomeMedia   = "media"
	OutcomeFailed  = "failed"
)

// Config holds the metadata worker configuration
type Config struct {
	BatchSize       int
	PollInterval    time.Duration
	WorkerPoolSize  int
	WorkerQueueSize int
}

// Worker fills token metadata and attributes in the background
type Worker interface {
	// Run polls tokens pending metadata until the context is cancelled
	Run(ctx context.Context) error
}

type worker struct {
	config     Config
	store      store.Store
	resolver   Resolver
	maintainer aggregator.Maintainer
	locker     *aggregator.Locker
	clock      adapter.Clock
	metrics    *metrics.Metrics
}

// NewWorker creates a new metadata worker
func NewWorker(
	cfg Config,
	st store.Store,
	resolver Resolver,
	maintainer aggregator.Maintainer,
	locker *aggregator.Locker,
	clock adapter.Clock,
	m *metrics.Metrics,
) Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 4
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}

	return &worker{
		config:     cfg,
		store:      st,
		resolver:   resolver,
		maintainer: maintainer,
		locker:     locker,
		clock:      clock,
		metrics:    m,
	}
}

func (w *worker) Run(ctx context.Context) error {
	pool := pond.NewPool(w.config.WorkerPoolSize, pond.WithQueueSize(w.config.WorkerQueueSize))
	defer pool.StopAndWait()

	logger.InfoCtx(ctx, "Starting metadata worker",
		zap.Int("batch_size", w.config.BatchSize),
		zap.Int("worker_pool_size", w.config.WorkerPoolSize),
		zap.Duration("poll_interval", w.config.PollInterval))

	for {
		n, err := w.poll(ctx, pool)
		if err != nil && ctx.Err() == nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "Metadata poll failed"))
		}

		// a full batch means more tokens are waiting
		if err == nil && n == w.config.BatchSize {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-w.clock.After(w.config.PollInterval):
		}
	}
}

// poll processes one batch of tokens pending metadata and returns its size
func (w *worker) poll(ctx context.Context, pool pond.Pool) (int, error) {
	nfts, err := w.store.GetNFTsPendingMetadata(ctx, w.config.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(nfts) == 0 {
		return 0, nil
	}

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	failures := make([]error, len(nfts))
	for i, nft := range nfts {
		group.Submit(func() {
			if groupCtx.Err() != nil {
				return
			}
			failures[i] = w.process(groupCtx, nft)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		return len(nfts), err
	}

	return len(nfts), errors.Join(failures...)
}

// process fetches the metadata of one token and stores it together with the rarity
// updates of its collection. A token whose metadata cannot be fetched is marked checked
func (w *worker) process(ctx context.Context, nft schema.NFT) error {
	if nft.URI == nil {
		return w.store.MarkNFTMetadataChecked(ctx, nft.ID, w.clock.Now())
	}

	doc, err := w.resolver.Resolve(ctx, *nft.URI)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		w.metrics.MetadataFetches.WithLabelValues(OutcomeFailed).Inc()
		logger.WarnCtx(ctx, "Failed to resolve token metadata",
			zap.String("nft_id", nft.ID),
			zap.String("uri", *nft.URI),
			zap.Error(err))
		return w.store.MarkNFTMetadataChecked(ctx, nft.ID, w.clock.Now())
	}

	input, err := w.metadataInput(nft, doc)
	if err != nil {
		return err
	}

	unlock := w.locker.Lock([]string{nft.CollectionID})
	defer unlock()

	err = w.store.RunInTx(ctx, func(st store.Store) error {
		if err := st.SaveNFTMetadata(ctx, input); err != nil {
			return err
		}

		delta := aggregator.NewDelta()
		delta.AddAttributes(nft.CollectionID, doc.Pairs()...)
		return w.maintainer.Apply(ctx, st, delta)
	})
	if err != nil {
		return fmt.Errorf("failed to save metadata of %s: %w", nft.ID, err)
	}

	outcome := OutcomeFetched
	if doc.Raw == nil {
		outcome = OutcomeMedia
	}
	w.metrics.MetadataFetches.WithLabelValues(outcome).Inc()

	logger.DebugCtx(ctx, "Token metadata saved",
		zap.String("nft_id", nft.ID),
		zap.String("outcome", outcome),
		zap.Int("attributes", len(doc.Attributes)))

	return nil
}

func (w *worker) metadataInput(nft schema.NFT, doc *Document) (store.SaveNFTMetadataInput, error) {
	var attributesJSON datatypes.JSON
	if len(doc.Attributes) > 0 {
		data, err := json.Marshal(doc.Attributes)
		if err != nil {
			return store.SaveNFTMetadataInput{}, fmt.Errorf("failed to encode attributes: %w", err)
		}
		attributesJSON = data
	}

	attributes := make([]schema.Attribute, 0, len(doc.Attributes))
	for _, attribute := range doc.Attributes {
		attributes = append(attributes, schema.Attribute{
			ID:           domain.AttributeID(nft.CollectionID, nft.ID, attribute.TraitType, attribute.Value),
			CollectionID: nft.CollectionID,
			NFTID:        nft.ID,
			AttrType:     attribute.TraitType,
			Value:        attribute.Value,
		})
	}

	return store.SaveNFTMetadataInput{
		NFTID:     nft.ID,
		CheckedAt: w.clock.Now(),
		Metadata: schema.NFTMetadata{
			URI:          *nft.URI,
			CollectionID: nft.CollectionID,
			Name:         doc.Name,
			Description:  doc.Description,
			Image:        doc.Image,
			AnimationURL: doc.AnimationURL,
			ExternalURL:  doc.ExternalURL,
			Attributes:   attributesJSON,
			Raw:          datatypes.JSON(doc.Raw),
		},
		Attributes: attributes,
	}, nil
}
