package shift

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/appetiteclub/till/internal/storage"
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

// GatedKV blocks the first Get of Key until Release is closed.
type GatedKV struct {
	storage.KV
	Key     string
	Release chan struct{}

	once sync.Once
}

func (g *GatedKV) Get(ctx context.Context, key string) ([]byte, error) {
	if key == g.Key {
		g.once.Do(func() { <-g.Release })
	}
	return g.KV.Get(ctx, key)
}
