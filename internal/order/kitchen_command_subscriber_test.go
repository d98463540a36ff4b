package order

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/appetiteclub/till/pkg/event"
)

func TestKitchenCommandSubscriberStartNotConfigured(t *testing.T) {
	sub := NewKitchenCommandSubscriber(nil, nil, nil)

	if sub.logger == nil {
		t.Error("NewKitchenCommandSubscriber() should set noop logger when nil")
	}

	err := sub.Start(context.Background())
	if err == nil {
		t.Fatal("Start() with nil subscriber should return error")
	}
	if err.Error() != "kitchen command subscriber not configured" {
		t.Errorf("Start() error = %q", err.Error())
	}
}

func TestKitchenCommandSubscriberStart(t *testing.T) {
	f := newFixture(t, true)
	ms := &MockSubscriber{}
	sub := NewKitchenCommandSubscriber(ms, f.engine, nil)

	if err := sub.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if ms.Topic != event.KitchenCommandsTopic {
		t.Errorf("subscribed to %q, want %q", ms.Topic, event.KitchenCommandsTopic)
	}
	if ms.Handler == nil {
		t.Error("handler not registered")
	}
}

func TestKitchenCommandSubscriberHandleCommand(t *testing.T) {
	tests := []struct {
		name       string
		command    string
		useOrderID bool
		raw        string
		wantQueue  int
		wantStatus string
	}{
		{name: "ready", command: event.KitchenCommandReady, useOrderID: true, wantQueue: 1, wantStatus: "ready"},
		{name: "complete", command: event.KitchenCommandComplete, useOrderID: true, wantQueue: 0},
		{name: "unknownCommand", command: "burn", useOrderID: true, wantQueue: 1, wantStatus: "cooking"},
		{name: "unknownOrder", command: event.KitchenCommandReady, wantQueue: 1, wantStatus: "cooking"},
		{name: "malformed", raw: "{not json", wantQueue: 1, wantStatus: "cooking"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			r := f.place(t, "cash", "100")
			sub := NewKitchenCommandSubscriber(&MockSubscriber{}, f.engine, nil)

			msg := []byte(tt.raw)
			if tt.raw == "" {
				cmd := event.KitchenCommand{Command: tt.command, OrderID: "999", IssuedAt: time.Now()}
				if tt.useOrderID {
					cmd.OrderID = r.Order.ID
				}
				msg, _ = json.Marshal(cmd)
			}

			if err := sub.handleCommand(context.Background(), msg); err != nil {
				t.Fatalf("handleCommand() error = %v", err)
			}

			queue := f.engine.KitchenQueue()
			if len(queue) != tt.wantQueue {
				t.Fatalf("queue length = %d, want %d", len(queue), tt.wantQueue)
			}
			if tt.wantQueue > 0 && queue[0].Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", queue[0].Status, tt.wantStatus)
			}
		})
	}
}
