package stream_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/mocks"
	"github.com/feral-file/ff-marketplace-indexer/internal/stream"
)

var testConfig = stream.Config{
	URL:            "nats://localhost:4222",
	StreamName:     "APTOS_TRANSACTIONS",
	Subject:        "aptos.transactions",
	ConsumerName:   "marketplace-indexer",
	MaxReconnects:  10,
	ReconnectWait:  time.Second,
	ConnectionName: "test",
	AckWait:        time.Minute,
	MaxAckPending:  256,
}

type testNats struct {
	ctrl   *gomock.Controller
	natsJS *mocks.MockNatsJetStream
	nc     *mocks.MockNatsConn
	js     *mocks.MockJetStream
}

func setupTestNats(t *testing.T) *testNats {
	ctrl := gomock.NewController(t)
	tn := &testNats{
		ctrl:   ctrl,
		natsJS: mocks.NewMockNatsJetStream(ctrl),
		nc:     mocks.NewMockNatsConn(ctrl),
		js:     mocks.NewMockJetStream(ctrl),
	}
	tn.natsJS.EXPECT().Connect(testConfig.URL, gomock.Any()).Return(tn.nc, tn.js, nil)
	return tn
}

func (tn *testNats) tearDown() {
	tn.ctrl.Finish()
}

func encodeTx(t *testing.T, tx domain.Transaction) []byte {
	t.Helper()
	data, err := json.Marshal(tx)
	require.NoError(t, err)
	return data
}

func TestNewSource_ConnectError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	natsJS := mocks.NewMockNatsJetStream(ctrl)
	natsJS.EXPECT().Connect(testConfig.URL, gomock.Any()).Return(nil, nil, errors.New("no servers available"))

	_, err := stream.NewSource(testConfig, natsJS)
	assert.Error(t, err)
}

func TestSource_Run(t *testing.T) {
	tn := setupTestNats(t)
	defer tn.tearDown()

	ctx := context.Background()
	consumer := mocks.NewMockNatsConsumer(tn.ctrl)
	consumeCtx := mocks.NewMockConsumeContext(tn.ctrl)
	malformed := mocks.NewMockJetStreamMessage(tn.ctrl)
	valid := mocks.NewMockJetStreamMessage(tn.ctrl)

	tn.js.EXPECT().CreateOrUpdateConsumer(ctx, testConfig.StreamName, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, cfg jetstream.ConsumerConfig) (adapter.Consumer, error) {
			assert.Equal(t, testConfig.ConsumerName, cfg.Durable)
			assert.Equal(t, jetstream.DeliverAllPolicy, cfg.DeliverPolicy)
			assert.Equal(t, jetstream.AckExplicitPolicy, cfg.AckPolicy)
			assert.Equal(t, testConfig.Subject, cfg.FilterSubject)
			assert.Equal(t, testConfig.MaxAckPending, cfg.MaxAckPending)
			return consumer, nil
		})

	consumer.EXPECT().Consume(gomock.Any()).
		DoAndReturn(func(handler adapter.MessageHandler, _ ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
			go func() {
				handler(malformed)
				handler(valid)
			}()
			return consumeCtx, nil
		})

	var closed <-chan struct{} = make(chan struct{})
	consumeCtx.EXPECT().Closed().Return(closed).AnyTimes()
	consumeCtx.EXPECT().Stop()

	malformed.EXPECT().Data().Return([]byte("{not json"))
	malformed.EXPECT().Term().Return(nil)

	valid.EXPECT().Data().Return(encodeTx(t, domain.Transaction{Version: 42, Hash: "0xabc"}))
	valid.EXPECT().Ack().Return(nil)

	src, err := stream.NewSource(testConfig, tn.natsJS)
	require.NoError(t, err)

	errStop := errors.New("stop")
	var received []uint64
	err = src.Run(ctx, func(_ context.Context, delivery *stream.Delivery) error {
		received = append(received, delivery.Transaction.Version)
		require.NoError(t, delivery.Ack())
		return errStop
	})

	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, []uint64{42}, received)
}

func TestSource_RunStopsOnCancel(t *testing.T) {
	tn := setupTestNats(t)
	defer tn.tearDown()

	ctx, cancel := context.WithCancel(context.Background())
	consumer := mocks.NewMockNatsConsumer(tn.ctrl)
	consumeCtx := mocks.NewMockConsumeContext(tn.ctrl)

	tn.js.EXPECT().CreateOrUpdateConsumer(ctx, testConfig.StreamName, gomock.Any()).Return(consumer, nil)
	consumer.EXPECT().Consume(gomock.Any()).Return(consumeCtx, nil)

	var closed <-chan struct{} = make(chan struct{})
	consumeCtx.EXPECT().Closed().Return(closed).AnyTimes()
	consumeCtx.EXPECT().Stop()
	tn.nc.EXPECT().Close()

	src, err := stream.NewSource(testConfig, tn.natsJS)
	require.NoError(t, err)
	defer src.Close()

	cancel()
	err = src.Run(ctx, func(context.Context, *stream.Delivery) error {
		t.Fatal("handler must not be called")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_ConsumerError(t *testing.T) {
	tn := setupTestNats(t)
	defer tn.tearDown()

	ctx := context.Background()
	tn.js.EXPECT().CreateOrUpdateConsumer(ctx, testConfig.StreamName, gomock.Any()).
		Return(nil, errors.New("stream not found"))

	src, err := stream.NewSource(testConfig, tn.natsJS)
	require.NoError(t, err)

	err = src.Run(ctx, func(context.Context, *stream.Delivery) error { return nil })
	assert.ErrorContains(t, err, "stream not found")
}

func TestPublisher(t *testing.T) {
	tn := setupTestNats(t)
	defer tn.tearDown()

	ctx := context.Background()
	tx := &domain.Transaction{Version: 7, Hash: "0x07", BlockHeight: 3}

	tn.js.EXPECT().CreateOrUpdateStream(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, cfg jetstream.StreamConfig) error {
			assert.Equal(t, testConfig.StreamName, cfg.Name)
			assert.Equal(t, []string{testConfig.Subject}, cfg.Subjects)
			assert.Equal(t, 1, cfg.Replicas)
			return nil
		})
	tn.js.EXPECT().Publish(ctx, testConfig.Subject, encodeTx(t, *tx), gomock.Any()).
		Return(&jetstream.PubAck{Stream: testConfig.StreamName, Sequence: 1}, nil)
	tn.nc.EXPECT().Drain().Return(nil)

	pub, err := stream.NewPublisher(testConfig, tn.natsJS)
	require.NoError(t, err)

	require.NoError(t, pub.EnsureStream(ctx))
	require.NoError(t, pub.Publish(ctx, tx))
	pub.Close()
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		published []uint64
		wantErr   error
		result    stream.LoadResult
	}{
		{
			name:      "publishes every line",
			input:     `{"version":1,"hash":"0x1"}` + "\n\n" + `{"version":2,"hash":"0x2"}` + "\n",
			published: []uint64{1, 2},
			result:    stream.LoadResult{Published: 2, Skipped: 1},
		},
		{
			name:      "stops at a malformed line",
			input:     `{"version":1,"hash":"0x1"}` + "\n" + `{"version":` + "\n" + `{"version":3,"hash":"0x3"}`,
			published: []uint64{1},
			wantErr:   domain.ErrMalformedPayload,
			result:    stream.LoadResult{Published: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			ctx := context.Background()
			pub := mocks.NewMockStreamPublisher(ctrl)

			var published []uint64
			pub.EXPECT().Publish(ctx, gomock.Any()).
				DoAndReturn(func(_ context.Context, tx *domain.Transaction) error {
					published = append(published, tx.Version)
					return nil
				}).Times(len(tt.published))

			result, err := stream.Load(ctx, strings.NewReader(tt.input), pub)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.published, published)
			assert.Equal(t, tt.result, result)
		})
	}
}
