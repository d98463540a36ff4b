package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/appetiteclub/till/internal/app"
	"github.com/appetiteclub/till/internal/storage"
	"github.com/appetiteclub/till/pkg/platform"
)

var ErrRestoreNotConfirmed = errors.New("restore replaces all data, pass --confirm to proceed")

// Backup writes every stored key to a JSON file.
func Backup(ctx context.Context, config *platform.Config, logger platform.Logger) error {
	kv, stop, err := app.OpenBackend(ctx, config, logger)
	if err != nil {
		return err
	}
	defer stop(ctx)

	path := config.GetStringOrDef("file", backupName("till-backup", time.Now()))
	n, err := backupTo(ctx, kv, path)
	if err != nil {
		return err
	}
	logger.Info("Backup written", "file", path, "keys", n)
	return nil
}

// Restore replaces the stored data with a backup file. The current data is
// saved next to the backup first.
func Restore(ctx context.Context, config *platform.Config, logger platform.Logger) error {
	path, ok := config.GetString("file")
	if !ok || path == "" {
		return errors.New("restore needs --file=<backup.json>")
	}
	if !config.GetBool("confirm") {
		return ErrRestoreNotConfirmed
	}

	b, err := readBackup(path)
	if err != nil {
		return err
	}
	if !b.Recognised() {
		return storage.ErrInvalidBackup
	}

	kv, stop, err := app.OpenBackend(ctx, config, logger)
	if err != nil {
		return err
	}
	defer stop(ctx)

	safety := filepath.Join(filepath.Dir(path), backupName("till-pre-restore", time.Now()))
	if n, err := backupTo(ctx, kv, safety); err != nil {
		return fmt.Errorf("cannot save current data before restore: %w", err)
	} else if n > 0 {
		logger.Info("Current data saved", "file", safety, "keys", n)
	} else {
		_ = os.Remove(safety)
	}

	if err := storage.Restore(ctx, kv, b); err != nil {
		return err
	}
	logger.Info("Backup restored", "file", path, "keys", len(b))
	return nil
}

func backupTo(ctx context.Context, kv storage.KV, path string) (int, error) {
	b, err := storage.Dump(ctx, kv)
	if err != nil {
		return 0, err
	}
	raw, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("cannot encode backup: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return 0, fmt.Errorf("cannot write %s: %w", path, err)
	}
	return len(b), nil
}

func readBackup(path string) (storage.Backup, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var b storage.Backup
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidBackup, err)
	}
	return b, nil
}

func backupName(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s.json", prefix, at.Format("20060102-150405"))
}
