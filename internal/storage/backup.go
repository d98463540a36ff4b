package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidBackup = errors.New("backup holds no till data")

// Backup is every key of a store with its JSON value. Values that are not
// JSON are kept as JSON strings.
type Backup map[string]json.RawMessage

var knownKeys = map[string]bool{
	ShiftHistoryKey:  true,
	FavoritesKey:     true,
	ShopSettingsKey:  true,
	OfflineLogoKey:   true,
	OfflinePromoKey:  true,
	MenuCacheKey:     true,
	AdminPasswordKey: true,
}

// Recognised reports whether the backup carries at least one till key.
func (b Backup) Recognised() bool {
	for k := range b {
		if knownKeys[k] || strings.HasPrefix(k, DailyKeyPrefix) {
			return true
		}
	}
	return false
}

// Dump copies every key of kv.
func Dump(ctx context.Context, kv KV) (Backup, error) {
	keys, err := kv.Keys(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("cannot list keys: %w", err)
	}
	b := make(Backup, len(keys))
	for _, k := range keys {
		v, err := kv.Get(ctx, k)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", k, err)
		}
		if !json.Valid(v) {
			v, _ = json.Marshal(string(v))
		}
		b[k] = json.RawMessage(v)
	}
	return b, nil
}

// Restore replaces the whole content of kv with b. A backup without any till
// key is rejected before anything is deleted.
func Restore(ctx context.Context, kv KV, b Backup) error {
	if !b.Recognised() {
		return ErrInvalidBackup
	}
	for k, v := range b {
		if !json.Valid(v) {
			return fmt.Errorf("%w: value of %s is not JSON", ErrInvalidBackup, k)
		}
	}

	keys, err := kv.Keys(ctx, "")
	if err != nil {
		return fmt.Errorf("cannot list keys: %w", err)
	}
	for _, k := range keys {
		if err := kv.Delete(ctx, k); err != nil {
			return fmt.Errorf("cannot delete %s: %w", k, err)
		}
	}
	for k, v := range b {
		if err := kv.Put(ctx, k, v); err != nil {
			return fmt.Errorf("cannot write %s: %w", k, err)
		}
	}
	return nil
}
