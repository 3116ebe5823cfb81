package metadata_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-marketplace-indexer/internal/aggregator"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/metadata"
	"github.com/feral-file/ff-marketplace-indexer/internal/metrics"
	"github.com/feral-file/ff-marketplace-indexer/internal/mocks"
	"github.com/feral-file/ff-marketplace-indexer/internal/store"
	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
)

var checkedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testWorkerMocks struct {
	ctrl       *gomock.Controller
	store      *mocks.MockStore
	resolver   *mocks.MockMetadataResolver
	maintainer *mocks.MockMaintainer
	clock      *mocks.MockClock
	metrics    *metrics.Metrics
}

func setupTestWorker(t *testing.T) *testWorkerMocks {
	ctrl := gomock.NewController(t)
	tm := &testWorkerMocks{
		ctrl:       ctrl,
		store:      mocks.NewMockStore(ctrl),
		resolver:   mocks.NewMockMetadataResolver(ctrl),
		maintainer: mocks.NewMockMaintainer(ctrl),
		clock:      mocks.NewMockClock(ctrl),
		metrics:    metrics.New(prometheus.NewRegistry()),
	}
	tm.clock.EXPECT().Now().Return(checkedAt).AnyTimes()
	return tm
}

func (tm *testWorkerMocks) tearDown() {
	tm.ctrl.Finish()
}

func (tm *testWorkerMocks) worker(batchSize int) metadata.Worker {
	return metadata.NewWorker(metadata.Config{
		BatchSize:       batchSize,
		PollInterval:    time.Minute,
		WorkerPoolSize:  2,
		WorkerQueueSize: 10,
	}, tm.store, tm.resolver, tm.maintainer, aggregator.NewLocker(), tm.clock, tm.metrics)
}

// stopOnIdle cancels the run when the worker goes idle
func (tm *testWorkerMocks) stopOnIdle(cancel context.CancelFunc) {
	tm.clock.EXPECT().After(time.Minute).DoAndReturn(func(time.Duration) <-chan time.Time {
		cancel()
		return make(chan time.Time)
	})
}

func pendingNFT(id, uri string) schema.NFT {
	return schema.NFT{
		ID:           domain.StandardizeAddress(id),
		CollectionID: domain.StandardizeAddress("0xc0"),
		URI:          &uri,
	}
}

func TestWorker_SavesMetadataAndRarity(t *testing.T) {
	tm := setupTestWorker(t)
	defer tm.tearDown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nft := pendingNFT("0x70", "ipfs://bafymeta/1.json")
	name := "Ape #1"
	doc := &metadata.Document{
		Name: &name,
		Attributes: []metadata.Attribute{
			{TraitType: "background", Value: "blue"},
			{TraitType: "level", Value: "7"},
		},
		Raw: []byte(`{"name":"Ape #1"}`),
	}

	var (
		input store.SaveNFTMetadataInput
		delta *aggregator.Delta
	)

	tm.store.EXPECT().GetNFTsPendingMetadata(gomock.Any(), 20).Return([]schema.NFT{nft}, nil)
	tm.resolver.EXPECT().Resolve(gomock.Any(), "ipfs://bafymeta/1.json").Return(doc, nil)
	tm.store.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(store.Store) error) error {
			return fn(tm.store)
		})
	tm.store.EXPECT().SaveNFTMetadata(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in store.SaveNFTMetadataInput) error {
			input = in
			return nil
		})
	tm.maintainer.EXPECT().Apply(gomock.Any(), tm.store, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ store.Store, d *aggregator.Delta) error {
			delta = d
			return nil
		})
	tm.stopOnIdle(cancel)

	require.NoError(t, tm.worker(20).Run(ctx))

	assert.Equal(t, nft.ID, input.NFTID)
	assert.Equal(t, checkedAt, input.CheckedAt)
	assert.Equal(t, "ipfs://bafymeta/1.json", input.Metadata.URI)
	assert.Equal(t, nft.CollectionID, input.Metadata.CollectionID)
	assert.Equal(t, "Ape #1", *input.Metadata.Name)
	assert.JSONEq(t, `[{"trait_type":"background","value":"blue"},{"trait_type":"level","value":"7"}]`,
		string(input.Metadata.Attributes))

	require.Len(t, input.Attributes, 2)
	assert.Equal(t, domain.AttributeID(nft.CollectionID, nft.ID, "background", "blue"), input.Attributes[0].ID)
	assert.Equal(t, "level", input.Attributes[1].AttrType)
	assert.Equal(t, "7", input.Attributes[1].Value)

	require.NotNil(t, delta)
	assert.Equal(t, map[store.AttributePair]struct{}{
		{AttrType: "background", Value: "blue"}: {},
		{AttrType: "level", Value: "7"}:         {},
	}, delta.Attributes[nft.CollectionID])

	assert.Equal(t, float64(1), testutil.ToFloat64(tm.metrics.MetadataFetches.WithLabelValues(metadata.OutcomeFetched)))
}

func TestWorker_MarksUnresolvableTokens(t *testing.T) {
	tm := setupTestWorker(t)
	defer tm.tearDown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nft := pendingNFT("0x71", "https://gone.example.com/1.json")

	tm.store.EXPECT().GetNFTsPendingMetadata(gomock.Any(), 20).Return([]schema.NFT{nft}, nil)
	tm.resolver.EXPECT().Resolve(gomock.Any(), *nft.URI).Return(nil, errors.New("404"))
	tm.store.EXPECT().MarkNFTMetadataChecked(gomock.Any(), nft.ID, checkedAt).Return(nil)
	tm.stopOnIdle(cancel)

	require.NoError(t, tm.worker(20).Run(ctx))
	assert.Equal(t, float64(1), testutil.ToFloat64(tm.metrics.MetadataFetches.WithLabelValues(metadata.OutcomeFailed)))
}

func TestWorker_MediaURI(t *testing.T) {
	tm := setupTestWorker(t)
	defer tm.tearDown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nft := pendingNFT("0x72", "https://cdn.example.com/2.png")
	image := *nft.URI

	tm.store.EXPECT().GetNFTsPendingMetadata(gomock.Any(), 20).Return([]schema.NFT{nft}, nil)
	tm.resolver.EXPECT().Resolve(gomock.Any(), image).Return(&metadata.Document{Image: &image}, nil)
	tm.store.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(store.Store) error) error {
			return fn(tm.store)
		})
	tm.store.EXPECT().SaveNFTMetadata(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in store.SaveNFTMetadataInput) error {
			assert.Equal(t, image, *in.Metadata.Image)
			assert.Empty(t, in.Attributes)
			assert.Nil(t, in.Metadata.Attributes)
			return nil
		})
	tm.maintainer.EXPECT().Apply(gomock.Any(), tm.store, gomock.Any()).Return(nil)
	tm.stopOnIdle(cancel)

	require.NoError(t, tm.worker(20).Run(ctx))
	assert.Equal(t, float64(1), testutil.ToFloat64(tm.metrics.MetadataFetches.WithLabelValues(metadata.OutcomeMedia)))
}

func TestWorker_FullBatchPollsAgain(t *testing.T) {
	tm := setupTestWorker(t)
	defer tm.tearDown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nft := pendingNFT("0x73", "https://gone.example.com/3.json")

	gomock.InOrder(
		tm.store.EXPECT().GetNFTsPendingMetadata(gomock.Any(), 1).Return([]schema.NFT{nft}, nil),
		tm.store.EXPECT().GetNFTsPendingMetadata(gomock.Any(), 1).Return(nil, nil),
	)
	tm.resolver.EXPECT().Resolve(gomock.Any(), *nft.URI).Return(nil, errors.New("timeout"))
	tm.store.EXPECT().MarkNFTMetadataChecked(gomock.Any(), nft.ID, checkedAt).Return(nil)
	tm.stopOnIdle(cancel)

	require.NoError(t, tm.worker(1).Run(ctx))
}

func TestWorker_PollErrorWaits(t *testing.T) {
	tm := setupTestWorker(t)
	defer tm.tearDown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tm.store.EXPECT().GetNFTsPendingMetadata(gomock.Any(), 20).Return(nil, errors.New("connection refused"))
	tm.stopOnIdle(cancel)

	require.NoError(t, tm.worker(20).Run(ctx))
}
