package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/till/internal/app"
	"github.com/appetiteclub/till/pkg/platform"
)

// ResetDB deletes every key in the configured storage.
func ResetDB(ctx context.Context, config *platform.Config, logger platform.Logger) error {
	kv, stop, err := app.OpenBackend(ctx, config, logger)
	if err != nil {
		return err
	}
	defer stop(ctx)

	keys, err := kv.Keys(ctx, "")
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	logger.Info("Deleting keys", "count", len(keys))
	for _, k := range keys {
		if err := kv.Delete(ctx, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
		logger.Debug("Deleted", "key", k)
	}
	return nil
}
