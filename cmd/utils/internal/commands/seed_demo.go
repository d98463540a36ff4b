package commands

import (
	"context"

	"github.com/appetiteclub/till/internal/seeding"
	"github.com/appetiteclub/till/pkg/platform"
)

// SeedDemo rings up the demo day against the configured storage.
func SeedDemo(ctx context.Context, config *platform.Config, logger platform.Logger) error {
	env, err := openTill(ctx, config, logger)
	if err != nil {
		return err
	}
	defer env.stop(ctx)

	seeded, err := seeding.SeedDemoDay(ctx, seeding.Deps{
		KV:     env.kv,
		Store:  env.store,
		Shifts: env.shifts,
		Engine: env.engine,
	}, logger)
	if err != nil {
		return err
	}
	if !seeded {
		logger.Info("Nothing to do, today is already seeded")
	}
	return nil
}
