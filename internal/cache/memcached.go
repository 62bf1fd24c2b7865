package cache

import (
	"context"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// Memcached shares the cache across processes. Errors degrade to a
// miss; the store underneath is authoritative.
type Memcached struct {
	client *memcache.Client
	ttl    int32
}

func NewMemcached(addr string, ttl time.Duration) *Memcached {
	return &Memcached{
		client: memcache.New(addr),
		ttl:    int32(ttl.Seconds()),
	}
}

func (m *Memcached) Get(ctx context.Context, key string) ([]byte, bool) {
	item, err := m.client.Get(key)
	if err != nil {
		return nil, false
	}
	return item.Value, true
}

func (m *Memcached) Set(ctx context.Context, key string, value []byte) {
	m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: m.ttl,
	})
}

func (m *Memcached) Invalidate(ctx context.Context, key string) {
	m.client.Delete(key)
}
