package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/appetiteclub/till/pkg/platform"
)

const (
	DefaultLedgerStream   = "TILL_LEDGER"
	DefaultLedgerConsumer = "till-ledger-replay"
)

// NATSStream publishes ledger events into a JetStream stream and replays them.
type NATSStream struct {
	js       jetstream.JetStream
	stream   jetstream.Stream
	consumer jetstream.Consumer
	topic    string
	logger   platform.Logger
}

type NATSStreamConfig struct {
	StreamName   string
	Topic        string
	ConsumerName string
	MaxAge       time.Duration
	MaxMsgs      int64
}

// NewNATSStream ensures the stream and its durable consumer exist.
func NewNATSStream(ctx context.Context, conn *nats.Conn, cfg NATSStreamConfig, logger platform.Logger) (*NATSStream, error) {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	if cfg.StreamName == "" {
		cfg.StreamName = DefaultLedgerStream
	}
	if cfg.ConsumerName == "" {
		cfg.ConsumerName = DefaultLedgerConsumer
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 7 * 24 * time.Hour
	}

	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamConfig := jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{cfg.Topic},
		MaxAge:   cfg.MaxAge,
	}
	if cfg.MaxMsgs > 0 {
		streamConfig.MaxMsgs = cfg.MaxMsgs
	}

	stream, err := js.CreateOrUpdateStream(ctx, streamConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create/update stream %s: %w", cfg.StreamName, err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          cfg.ConsumerName,
		Durable:       cfg.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		FilterSubject: cfg.Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create/update consumer %s: %w", cfg.ConsumerName, err)
	}

	logger.Info("ledger stream ready", "stream", cfg.StreamName, "subject", cfg.Topic)
	return &NATSStream{
		js:       js,
		stream:   stream,
		consumer: consumer,
		topic:    cfg.Topic,
		logger:   logger,
	}, nil
}

func (s *NATSStream) Publish(ctx context.Context, topic string, msg []byte) error {
	if _, err := s.js.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	return nil
}

// Fetch returns up to limit messages not yet acknowledged by the consumer.
func (s *NATSStream) Fetch(ctx context.Context, limit int) ([]platform.StreamMessage, error) {
	if limit <= 0 {
		limit = 1000
	}

	batch, err := s.consumer.Fetch(limit, jetstream.FetchMaxWait(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []platform.StreamMessage
	for msg := range batch.Messages() {
		meta, err := msg.Metadata()
		if err != nil {
			_ = msg.Ack()
			continue
		}
		messages = append(messages, platform.StreamMessage{
			Data:      msg.Data(),
			Sequence:  meta.Sequence.Stream,
			Timestamp: meta.Timestamp.UnixNano(),
		})
		_ = msg.Ack()
	}
	if err := batch.Error(); err != nil {
		return messages, fmt.Errorf("fetch interrupted: %w", err)
	}
	return messages, nil
}

// Subscribe consumes new messages on the configured subject until ctx is
// done; topic is ignored.
func (s *NATSStream) Subscribe(ctx context.Context, topic string, handler platform.HandlerFunc) error {
	cc, err := s.consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(ctx, msg.Data()); err != nil {
			s.logger.Error("stream handler failed", "subject", s.topic, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", s.topic, err)
	}
	go func() {
		<-ctx.Done()
		cc.Stop()
	}()
	return nil
}
