package commands

import (
	"context"

	"github.com/appetiteclub/till/internal/app"
	"github.com/appetiteclub/till/internal/seeding"
	"github.com/appetiteclub/till/pkg/platform"
)

// ClearDemo drops the seed markers. Orders already rung up stay in the ledger.
func ClearDemo(ctx context.Context, config *platform.Config, logger platform.Logger) error {
	kv, stop, err := app.OpenBackend(ctx, config, logger)
	if err != nil {
		return err
	}
	defer stop(ctx)

	n, err := seeding.ClearDemo(ctx, kv)
	if err != nil {
		return err
	}
	logger.Info("Demo markers removed", "count", n)
	return nil
}
