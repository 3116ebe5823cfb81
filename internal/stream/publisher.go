package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
)

//go:generate mockgen -source=publisher.go -destination=../mocks/stream_publisher.go -package=mocks -mock_names=Publisher=MockStreamPublisher

// Publisher writes transactions to the stream
type Publisher interface {
	// EnsureStream creates the stream or updates its configuration
	EnsureStream(ctx context.Context) error
	// Publish publishes one transaction. The version is the message id so that
	// republishing a transaction within the duplicate window is a no-op
	Publish(ctx context.Context, tx *domain.Transaction) error
	// Close closes the connection
	Close()
}

type publisher struct {
	nc     adapter.NatsConn
	js     adapter.JetStream
	config Config
}

// NewPublisher connects to NATS and creates a transaction publisher
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream) (Publisher, error) {
	nc, js, err := connect(cfg, natsJS)
	if err != nil {
		return nil, err
	}

	return &publisher{nc: nc, js: js, config: cfg}, nil
}

func (p *publisher) EnsureStream(ctx context.Context) error {
	replicas := p.config.Replicas
	if replicas <= 0 {
		replicas = 1
	}

	err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      p.config.StreamName,
		Subjects:  []string{p.config.Subject},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		Replicas:  replicas,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update stream: %w", err)
	}

	return nil
}

func (p *publisher) Publish(ctx context.Context, tx *domain.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	ack, err := p.js.Publish(ctx, p.config.Subject, data, jetstream.WithMsgID(strconv.FormatUint(tx.Version, 10)))
	if err != nil {
		return fmt.Errorf("failed to publish transaction: %w", err)
	}

	if ack != nil && ack.Duplicate {
		logger.DebugCtx(ctx, "Transaction already published", zap.Uint64("version", tx.Version))
	}

	return nil
}

// Close drains and closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	if err := p.nc.Drain(); err != nil {
		logger.Warn("Failed to drain NATS connection", zap.Error(err))
		p.nc.Close()
	}
}
