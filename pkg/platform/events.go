package platform

import "context"

// HandlerFunc processes a raw event payload.
type HandlerFunc func(ctx context.Context, msg []byte) error

type Publisher interface {
	Publish(ctx context.Context, topic string, msg []byte) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler HandlerFunc) error
}

// StreamMessage is a replayed message from a persistent stream.
type StreamMessage struct {
	Data      []byte
	Sequence  uint64
	Timestamp int64
}

// StreamConsumer replays persisted events, used to rebuild projections on start.
type StreamConsumer interface {
	Fetch(ctx context.Context, limit int) ([]StreamMessage, error)
}
