package order

import (
	"context"
	"encoding/json"

	"github.com/appetiteclub/till/pkg/platform"
)

type MockPublisher struct {
	PublishFunc func(ctx context.Context, topic string, msg []byte) error
	Events      []map[string]interface{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	var evt map[string]interface{}
	_ = json.Unmarshal(msg, &evt)
	m.Events = append(m.Events, evt)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	return nil
}

func (m *MockPublisher) Types() []string {
	var out []string
	for _, e := range m.Events {
		out = append(out, e["event_type"].(string))
	}
	return out
}

type MockSync struct {
	Requests int
}

func (m *MockSync) Request() {
	m.Requests++
}

type MockSubscriber struct {
	SubscribeFunc func(ctx context.Context, topic string, handler platform.HandlerFunc) error
	Topic         string
	Handler       platform.HandlerFunc
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler platform.HandlerFunc) error {
	m.Topic = topic
	m.Handler = handler
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	return nil
}
