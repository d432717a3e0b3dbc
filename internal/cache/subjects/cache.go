package subjects

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:        10 * time.Minute,
		MaxEntries: 16,
	}
}

// Loader fetches the allowed subjects of one database from the origin.
type Loader func(ctx context.Context) ([]string, error)

type MetricsSnapshot struct {
	Hits      uint64
	Misses    uint64
	LoadError uint64
}

// Cache keeps the subject option list per database id. The option set
// changes only when someone edits the database schema.
type Cache struct {
	lru *expirable.LRU[string, []string]

	hits      atomic.Uint64
	misses    atomic.Uint64
	loadError atomic.Uint64
}

func NewCache(cfg CacheConfig) *Cache {
	def := DefaultCacheConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	return &Cache{lru: expirable.NewLRU[string, []string](cfg.MaxEntries, nil, cfg.TTL)}
}

func (c *Cache) Get(ctx context.Context, databaseID string, load Loader) ([]string, error) {
	key := strings.TrimSpace(databaseID)
	if cached, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return append([]string(nil), cached...), nil
	}
	c.misses.Add(1)

	list, err := load(ctx)
	if err != nil {
		c.loadError.Add(1)
		return nil, err
	}
	copied := append([]string(nil), list...)
	c.lru.Add(key, copied)
	return append([]string(nil), copied...), nil
}

// Invalidate drops the cached list for databaseID.
func (c *Cache) Invalidate(databaseID string) {
	c.lru.Remove(strings.TrimSpace(databaseID))
}

func (c *Cache) Metrics() MetricsSnapshot {
	if c == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		LoadError: c.loadError.Load(),
	}
}
