// Package cache is the read cache in front of webmention documents.
package cache

import "context"

// Cache stores serialized documents keyed by slug. Misses are not
// errors; Get reports presence explicitly.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Invalidate(ctx context.Context, key string)
}

// Noop satisfies Cache when caching is disabled.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, bool) { return nil, false }
func (Noop) Set(ctx context.Context, key string, value []byte)  {}
func (Noop) Invalidate(ctx context.Context, key string)         {}
