// Package postgres keeps the till's key/value documents in a single table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/appetiteclub/till/internal/storage"
	"github.com/appetiteclub/till/pkg/platform"
)

const schema = `
CREATE TABLE IF NOT EXISTS till_kv (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

var ErrNotStarted = errors.New("postgres repository not started")

// KVRepo implements storage.KV over a pgx pool.
type KVRepo struct {
	url    string
	pool   *pgxpool.Pool
	logger platform.Logger
}

func NewKVRepo(url string, logger platform.Logger) *KVRepo {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	return &KVRepo{url: url, logger: logger}
}

// Start opens the pool, pings it and ensures the table exists.
func (r *KVRepo) Start(ctx context.Context) error {
	if r.url == "" {
		return errors.New("db.postgres.url is not set")
	}

	cfg, err := pgxpool.ParseConfig(r.url)
	if err != nil {
		return fmt.Errorf("invalid postgres url: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cannot connect to postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("cannot ping postgres: %w", err)
	}

	r.pool = pool
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		r.pool = nil
		return err
	}

	r.logger.Info("connected to postgres", "table", "till_kv")
	return nil
}

func (r *KVRepo) Stop(ctx context.Context) error {
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
		r.logger.Info("disconnected from postgres")
	}
	return nil
}

func (r *KVRepo) EnsureSchema(ctx context.Context) error {
	if r.pool == nil {
		return ErrNotStarted
	}
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("cannot create till_kv: %w", err)
	}
	return nil
}

func (r *KVRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if r.pool == nil {
		return nil, ErrNotStarted
	}

	var value []byte
	err := r.pool.QueryRow(ctx, `SELECT value FROM till_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cannot get %s: %w", key, err)
	}
	return value, nil
}

func (r *KVRepo) Put(ctx context.Context, key string, value []byte) error {
	if r.pool == nil {
		return ErrNotStarted
	}

	query := `
	INSERT INTO till_kv (key, value, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE SET
		value      = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at`

	if _, err := r.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("cannot put %s: %w", key, err)
	}
	return nil
}

func (r *KVRepo) Delete(ctx context.Context, key string) error {
	if r.pool == nil {
		return ErrNotStarted
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM till_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("cannot delete %s: %w", key, err)
	}
	return nil
}

func (r *KVRepo) Keys(ctx context.Context, prefix string) ([]string, error) {
	if r.pool == nil {
		return nil, ErrNotStarted
	}

	rows, err := r.pool.Query(ctx,
		`SELECT key FROM till_kv WHERE key LIKE $1 ESCAPE '\' ORDER BY key`, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("cannot list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// likePrefix escapes LIKE wildcards so the prefix matches literally.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
