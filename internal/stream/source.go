package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
)

// Delivery is one decoded transaction together with its stream message
type Delivery struct {
	Transaction *domain.Transaction
	msg         adapter.Message
}

// NewDelivery wraps a decoded transaction and the message it came from
func NewDelivery(tx *domain.Transaction, msg adapter.Message) *Delivery {
	return &Delivery{Transaction: tx, msg: msg}
}

// Ack acknowledges the message. Call it only after the transaction's writes committed
func (d *Delivery) Ack() error {
	if d.msg == nil {
		return nil
	}
	return d.msg.Ack()
}

// Nak asks the stream to redeliver the message
func (d *Delivery) Nak() error {
	if d.msg == nil {
		return nil
	}
	return d.msg.Nak()
}

// Handler receives deliveries in stream order. A returned error stops the source
type Handler func(ctx context.Context, delivery *Delivery) error

//go:generate mockgen -source=source.go -destination=../mocks/stream_source.go -package=mocks -mock_names=Source=MockStreamSource

// Source delivers decoded transactions from the stream
type Source interface {
	// Run consumes the stream until the context is cancelled or the handler fails
	Run(ctx context.Context, handler Handler) error
	// Close closes the connection
	Close()
}

type source struct {
	nc     adapter.NatsConn
	js     adapter.JetStream
	config Config
}

// NewSource connects to NATS and creates a transaction source
func NewSource(cfg Config, natsJS adapter.NatsJetStream) (Source, error) {
	nc, js, err := connect(cfg, natsJS)
	if err != nil {
		return nil, err
	}

	return &source{nc: nc, js: js, config: cfg}, nil
}

// Run creates the durable consumer and feeds decoded transactions to the handler one at a time
func (s *source) Run(ctx context.Context, handler Handler) error {
	logger.InfoCtx(ctx, "Starting transaction source",
		zap.String("stream", s.config.StreamName),
		zap.String("consumer", s.config.ConsumerName))

	consumerConfig := jetstream.ConsumerConfig{
		Durable:       s.config.ConsumerName,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       s.config.AckWait,
		MaxAckPending: s.config.MaxAckPending,
		FilterSubject: s.config.Subject,
	}

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, s.config.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	done := make(chan struct{})
	defer close(done)

	msgChan := make(chan adapter.Message, 100)
	sub, err := consumer.Consume(func(msg adapter.Message) {
		select {
		case msgChan <- msg:
		case <-done:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.InfoCtx(ctx, "Started consuming transactions")

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Shutting down transaction source")
			return ctx.Err()
		case <-sub.Closed():
			return fmt.Errorf("%w: subscription closed", domain.ErrTransientIO)
		case msg := <-msgChan:
			tx, err := decode(msg.Data())
			if err != nil {
				logger.ErrorCtx(ctx, err, zap.String("message", "Failed to decode transaction"))
				if err := msg.Term(); err != nil {
					logger.ErrorCtx(ctx, err, zap.String("message", "Failed to terminate message"))
				}
				continue
			}

			if err := handler(ctx, NewDelivery(tx, msg)); err != nil {
				return err
			}
		}
	}
}

func decode(data []byte) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if tx.Version == 0 && tx.Hash == "" {
		return nil, fmt.Errorf("%w: transaction without version", domain.ErrMalformedPayload)
	}
	return &tx, nil
}

// Close closes the NATS connection
func (s *source) Close() {
	if s.nc == nil {
		return
	}

	s.nc.Close()
}
