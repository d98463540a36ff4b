package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/till/pkg/platform"
)

// Publish encodes evt as JSON and sends it on topic. A nil publisher is a
// no-op so callers can run without a broker.
func Publish(ctx context.Context, pub platform.Publisher, topic string, evt interface{}) error {
	if pub == nil {
		return nil
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("cannot encode event: %w", err)
	}
	if err := pub.Publish(ctx, topic, b); err != nil {
		return fmt.Errorf("cannot publish to %s: %w", topic, err)
	}
	return nil
}
