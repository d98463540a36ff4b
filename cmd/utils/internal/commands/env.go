package commands

import (
	"context"

	"github.com/appetiteclub/till/internal/app"
	"github.com/appetiteclub/till/internal/clock"
	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/order"
	"github.com/appetiteclub/till/internal/shift"
	"github.com/appetiteclub/till/internal/storage"
	"github.com/appetiteclub/till/pkg/platform"
)

// tillEnv is the ledger side of the till without HTTP or background sync.
type tillEnv struct {
	kv     storage.KV
	store  *ledger.Store
	shifts *shift.Manager
	engine *order.Engine
	stop   func(context.Context) error
}

func openTill(ctx context.Context, config *platform.Config, logger platform.Logger) (*tillEnv, error) {
	kv, stop, err := app.OpenBackend(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	clk := clock.New(clock.LoadLocation(config.GetStringOrDef("till.timezone", "Asia/Bangkok")))
	store := ledger.NewStore(kv, clk, logger)
	if err := store.InitializeForToday(ctx); err != nil {
		_ = stop(ctx)
		return nil, err
	}

	return &tillEnv{
		kv:    kv,
		store: store,
		shifts: shift.NewManager(store, shift.NewHistory(kv, logger), clk, shift.Options{
			MaxPerDay: config.GetIntOrDef("shift.limit", shift.DefaultMaxPerDay),
		}, logger),
		engine: order.NewEngine(store, clk, order.Options{}, logger),
		stop:   stop,
	}, nil
}
