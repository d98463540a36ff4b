package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/appetiteclub/till/pkg/enums/kitchenstatus"
	"github.com/appetiteclub/till/pkg/event"
	"github.com/appetiteclub/till/pkg/platform"
)

// KitchenCommandSubscriber applies commands sent by a kitchen display.
type KitchenCommandSubscriber struct {
	subscriber platform.Subscriber
	engine     *Engine
	logger     platform.Logger
}

func NewKitchenCommandSubscriber(sub platform.Subscriber, engine *Engine, logger platform.Logger) *KitchenCommandSubscriber {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	return &KitchenCommandSubscriber{
		subscriber: sub,
		engine:     engine,
		logger:     logger,
	}
}

func (s *KitchenCommandSubscriber) Start(ctx context.Context) error {
	s.log().Info("starting kitchen command subscriber", "topic", event.KitchenCommandsTopic)
	if s.subscriber == nil || s.engine == nil {
		return fmt.Errorf("kitchen command subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, event.KitchenCommandsTopic, s.handleCommand)
}

// handleCommand drops malformed or stale commands so the broker does not
// redeliver them.
func (s *KitchenCommandSubscriber) handleCommand(ctx context.Context, msg []byte) error {
	var cmd event.KitchenCommand
	if err := json.Unmarshal(msg, &cmd); err != nil {
		s.log().Info("invalid kitchen command", "error", err)
		return nil
	}
	if cmd.OrderID == "" {
		s.log().Debug("kitchen command missing order_id", "command", cmd.Command)
		return nil
	}

	var err error
	switch cmd.Command {
	case event.KitchenCommandReady:
		_, err = s.engine.UpdateOrderStatus(ctx, cmd.OrderID, kitchenstatus.Statuses.Ready.Code())
	case event.KitchenCommandComplete:
		err = s.engine.CompleteOrder(ctx, cmd.OrderID)
	default:
		s.log().Debug("unknown kitchen command", "command", cmd.Command)
		return nil
	}

	if errors.Is(err, ErrKitchenOrderNotFound) {
		s.log().Info("kitchen command for unknown order", "order_id", cmd.OrderID, "command", cmd.Command)
		return nil
	}
	if err != nil {
		return err
	}

	s.log().Info("kitchen command applied", "order_id", cmd.OrderID, "command", cmd.Command, "source", cmd.Source)
	return nil
}

func (s *KitchenCommandSubscriber) log() platform.Logger {
	return s.logger.With("component", "KitchenCommandSubscriber")
}
