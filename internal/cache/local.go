package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Local is an in-process cache with TTL eviction.
type Local struct {
	cache *gocache.Cache
}

func NewLocal(ttl time.Duration) *Local {
	return &Local{
		cache: gocache.New(ttl, ttl+5*time.Minute),
	}
}

func (l *Local) Get(ctx context.Context, key string) ([]byte, bool) {
	v, found := l.cache.Get(key)
	if !found {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

func (l *Local) Set(ctx context.Context, key string, value []byte) {
	l.cache.Set(key, value, gocache.DefaultExpiration)
}

func (l *Local) Invalidate(ctx context.Context, key string) {
	l.cache.Delete(key)
}
