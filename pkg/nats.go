package pkg

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/appetiteclub/till/pkg/platform"
)

// ConnectNATS dials url with reconnects enabled for the lifetime of the till.
func ConnectNATS(url, name string, logger platform.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	return p.conn.Publish(topic, msg)
}

type NATSSubscriber struct {
	conn   *nats.Conn
	logger platform.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewNATSSubscriber(conn *nats.Conn, logger platform.Logger) *NATSSubscriber {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	return &NATSSubscriber{conn: conn, logger: logger}
}

func (s *NATSSubscriber) Subscribe(ctx context.Context, topic string, handler platform.HandlerFunc) error {
	sub, err := s.conn.Subscribe(topic, func(msg *nats.Msg) {
		if err := handler(ctx, msg.Data); err != nil {
			s.logger.Error("event handler failed", "topic", topic, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("cannot subscribe to %s: %w", topic, err)
	}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
	return nil
}

// Close drains every subscription made through s.
func (s *NATSSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if err := sub.Drain(); err != nil {
			s.logger.Warn("cannot drain subscription", "subject", sub.Subject, "error", err)
		}
	}
	s.subs = nil
	return nil
}
