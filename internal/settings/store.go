// Package settings provides the system_settings key/value store backing the
// configurable booking thresholds. Callers receive an injected Store so tests
// can swap values without process-global state.
package settings

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5"
)

// Store reads a configuration value by key. The boolean is false when the
// key has no value.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// Row is the minimal query surface needed from pgx.
type Row interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgStore struct {
	db Row
}

func NewPgStore(db Row) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx, `
		SELECT value
		FROM system_settings
		WHERE key = $1
	`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Cached wraps a Store with an in-process map that can be dropped wholesale.
// Thresholds change rarely; a stale read until the next Invalidate is fine.
type Cached struct {
	inner Store

	mu     sync.RWMutex
	values map[string]string
}

func NewCached(inner Store) *Cached {
	return &Cached{
		inner:  inner,
		values: make(map[string]string),
	}
}

func (c *Cached) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	v, ok := c.values[key]
	c.mu.RUnlock()
	if ok {
		return v, true, nil
	}

	v, ok, err := c.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	c.mu.Lock()
	c.values[key] = v
	c.mu.Unlock()
	return v, true, nil
}

// Invalidate drops everything cached so the next reads hit the inner store.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.values = make(map[string]string)
	c.mu.Unlock()
}

// Static is a fixed in-memory store for tests and tools.
type Static map[string]string

func (s Static) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s[key]
	return v, ok, nil
}

// Typed getters with defaults, shared by the config loaders.

func GetInt(ctx context.Context, s Store, key string, def int) int {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func GetFloat(ctx context.Context, s Store, key string, def float64) float64 {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func GetBool(ctx context.Context, s Store, key string, def bool) bool {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
