// Package kv is the document store behind webmention documents and
// rate-limit records: opaque byte documents addressed by (bucket, key).
// Backends share one locking contract: mutators take the per-key lock
// for the whole read-modify-write cycle, readers go lock-free and
// tolerate last-writer-wins with an in-flight write.
package kv

import "context"

// Store persists one document per (bucket, key).
type Store interface {
	// Get returns the document and whether it exists.
	Get(ctx context.Context, bucket, key string) ([]byte, bool, error)
	Put(ctx context.Context, bucket, key string, value []byte) error
	Delete(ctx context.Context, bucket, key string) error
	// Keys lists the keys present in a bucket, in no particular order.
	Keys(ctx context.Context, bucket string) ([]string, error)
	// Lock acquires the write lock for a key and returns the unlock.
	Lock(bucket, key string) func()
}
