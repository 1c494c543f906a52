package demo

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	go_cache "github.com/eko/gocache/store/go_cache/v4"
	"github.com/patrickmn/go-cache"
)

// dedupCache remembers which keys (one per tag and subscription id) were
// recently pushed; payloads themselves are not stored. It is narrowed
// to the one get/set/seen shape
// subscribe_hello and subscribe_foo actually need.
type dedupCache struct {
	cache *gocache.Cache[[]byte]
}

func newDedupCache(ttl, cleanupInterval time.Duration) *dedupCache {
	memStore := go_cache.NewGoCache(cache.New(ttl, cleanupInterval))
	return &dedupCache{cache: gocache.New[[]byte](memStore)}
}

// seen reports whether key was already recorded within ttl, recording
// it if not. A publisher calls this immediately before pushing a tick
// so a burst of identical values collapses to one notification.
func (d *dedupCache) seen(ctx context.Context, key string, ttl time.Duration) bool {
	var cached bool
	if err := d.get(ctx, key, &cached); err == nil && cached {
		return true
	}
	_ = d.set(ctx, key, true, ttl)
	return false
}

func (d *dedupCache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return d.cache.Set(ctx, key, data, store.WithExpiration(ttl))
}

func (d *dedupCache) get(ctx context.Context, key string, out any) error {
	value, err := d.cache.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(value, out)
}
