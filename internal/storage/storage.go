// Package storage is the till's durable key/value layer. Every persisted value
// is a JSON document addressed by a flat string key.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("key not found")

const (
	DailyKeyPrefix   = "daily:"
	ShiftHistoryKey  = "shift_history"
	FavoritesKey     = "favorites"
	ShopSettingsKey  = "shop_settings"
	OfflineLogoKey   = "offline_logo"
	OfflinePromoKey  = "offline_promo"
	MenuCacheKey     = "menu_cache"
	AdminPasswordKey = "admin_password"
)

// KV is implemented by the memory, file, Mongo and Postgres backends.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// DailyKey returns the key of the ledger snapshot for a day key (YYYYMMDD).
func DailyKey(day string) string {
	return DailyKeyPrefix + day
}

// GetJSON loads key into v. It returns ErrNotFound untouched so callers can
// tell a missing value from a corrupt one.
func GetJSON(ctx context.Context, kv KV, key string, v interface{}) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("cannot decode %s: %w", key, err)
	}
	return nil
}

func PutJSON(ctx context.Context, kv KV, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot encode %s: %w", key, err)
	}
	return kv.Put(ctx, key, raw)
}
