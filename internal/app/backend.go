package app

import (
	"context"
	"fmt"

	"github.com/appetiteclub/till/internal/mongo"
	"github.com/appetiteclub/till/internal/postgres"
	"github.com/appetiteclub/till/internal/storage"
	"github.com/appetiteclub/till/pkg/platform"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// NewBackend builds the key/value store selected by storage.driver. The hooks
// connect and disconnect backends that need it; they are empty otherwise.
func NewBackend(config *platform.Config, logger platform.Logger) (storage.KV, platform.LifecycleHooks, error) {
	driver := config.GetStringOrDef("storage.driver", DriverFile)

	switch driver {
	case DriverMemory:
		return storage.NewMemory(), platform.LifecycleHooks{}, nil

	case DriverFile:
		dir := config.GetStringOrDef("storage.file.dir", "./data")
		kv, err := storage.NewFile(dir)
		if err != nil {
			return nil, platform.LifecycleHooks{}, err
		}
		return kv, platform.LifecycleHooks{}, nil

	case DriverMongo:
		base := mongo.NewBaseRepo(config, logger)
		return mongo.NewKVRepo(base, logger), platform.LifecycleHooks{
			OnStart: base.Start,
			OnStop:  base.Stop,
		}, nil

	case DriverPostgres:
		repo := postgres.NewKVRepo(config.GetStringOrDef("db.postgres.url", ""), logger)
		return repo, platform.LifecycleHooks{
			OnStart: repo.Start,
			OnStop:  repo.Stop,
		}, nil
	}

	return nil, platform.LifecycleHooks{}, fmt.Errorf("unknown storage driver %q", driver)
}

// OpenBackend builds and starts the backend for one-shot commands. The
// returned func stops it.
func OpenBackend(ctx context.Context, config *platform.Config, logger platform.Logger) (storage.KV, func(context.Context) error, error) {
	kv, hooks, err := NewBackend(config, logger)
	if err != nil {
		return nil, nil, err
	}
	if hooks.OnStart != nil {
		if err := hooks.OnStart(ctx); err != nil {
			return nil, nil, err
		}
	}
	stop := func(ctx context.Context) error {
		if hooks.OnStop == nil {
			return nil
		}
		return hooks.OnStop(ctx)
	}
	return kv, stop, nil
}
