package kv

import "sync"

// keyedLocks hands out one mutex per (bucket, key). Contention is
// scoped per key; no cross-key ordering is implied. Single-node only,
// which is the deployment target for every backend here. Entries are
// refcounted and evicted when the last holder releases, so the set
// stays proportional to in-flight writes, not to keys ever seen.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*lockEntry)}
}

func (k *keyedLocks) Lock(bucket, key string) func() {
	id := bucket + "/" + key

	k.mu.Lock()
	e, ok := k.locks[id]
	if !ok {
		e = &lockEntry{}
		k.locks[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
