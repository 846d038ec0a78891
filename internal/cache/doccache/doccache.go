// Package doccache keeps rendered decode results keyed by document hash. An
// in-process LRU sits in front of an optional Redis tier.
package doccache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/cityjson-codec/internal/cache/redisstore"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/observability"
)

const cacheName = "document"

type Cache struct {
	local *lru.Cache[string, []byte]
	rc    *redisstore.Client
	ttl   time.Duration
	opTO  time.Duration
	log   *zerolog.Logger
}

type Option func(*Cache)

// WithRedis adds a shared tier. Values written there expire after ttl.
func WithRedis(rc *redisstore.Client, ttl time.Duration) Option {
	return func(c *Cache) {
		c.rc = rc
		c.ttl = ttl
	}
}

// WithOpTimeout bounds each Redis call so a slow cache never stalls a
// request.
func WithOpTimeout(d time.Duration) Option {
	return func(c *Cache) { c.opTO = d }
}

func WithLogger(l *zerolog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

func New(size int, opts ...Option) (*Cache, error) {
	if size <= 0 {
		size = 256
	}
	l, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("doccache lru: %w", err)
	}
	c := &Cache{local: l, opTO: 250 * time.Millisecond}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		nop := zerolog.Nop()
		c.log = &nop
	}
	return c, nil
}

// Get looks in the LRU first, then Redis. A Redis hit is promoted into the
// LRU. Redis errors count as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := c.local.Get(key); ok {
		observability.AddCacheHits(cacheName, 1)
		return v, true
	}
	if c.rc != nil {
		opCtx, cancel := context.WithTimeout(ctx, c.opTO)
		v, found, err := c.rc.Get(opCtx, key)
		cancel()
		if err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("document cache get failed")
		}
		if found {
			c.local.Add(key, v)
			observability.AddCacheHits(cacheName, 1)
			return v, true
		}
	}
	observability.AddCacheMisses(cacheName, 1)
	return nil, false
}

// Put stores val in both tiers. A Redis failure is logged and ignored.
func (c *Cache) Put(ctx context.Context, key string, val []byte) {
	c.local.Add(key, val)
	if c.rc == nil {
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, c.opTO)
	defer cancel()
	if err := c.rc.Set(opCtx, key, val, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("document cache set failed")
	}
}

func (c *Cache) Len() int { return c.local.Len() }
