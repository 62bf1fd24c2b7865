package kv

import (
	"context"
	"sort"
	"testing"
	"time"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, found, err := s.Get(ctx, "webmentions", "post-1"); err != nil || found {
		t.Fatalf("fresh store: found=%v err=%v", found, err)
	}

	if err := s.Put(ctx, "webmentions", "post-1", []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	data, found, err := s.Get(ctx, "webmentions", "post-1")
	if err != nil || !found {
		t.Fatalf("after put: found=%v err=%v", found, err)
	}
	if string(data) != `[]` {
		t.Fatalf("value: got %q", data)
	}

	if err := s.Delete(ctx, "webmentions", "post-1"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := s.Get(ctx, "webmentions", "post-1"); found {
		t.Fatalf("document survived delete")
	}
	// Deleting again is fine.
	if err := s.Delete(ctx, "webmentions", "post-1"); err != nil {
		t.Fatal(err)
	}
}

func TestFSStoreKeysPerBucket(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	s.Put(ctx, "webmentions", "a", []byte("1"))
	s.Put(ctx, "webmentions", "b", []byte("2"))
	s.Put(ctx, "ratelimit", "c", []byte("3"))

	keys, err := s.Keys(ctx, "webmentions")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("keys: got %v", keys)
	}

	empty, err := s.Keys(ctx, "no-such-bucket")
	if err != nil || len(empty) != 0 {
		t.Fatalf("missing bucket: keys=%v err=%v", empty, err)
	}
}

func TestKeyedLocksIndependentKeys(t *testing.T) {
	locks := newKeyedLocks()

	unlockA := locks.Lock("b", "a")
	// A different key must not block.
	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b", "other")
		unlock()
		close(done)
	}()
	<-done
	unlockA()
}

func TestKeyedLocksEvictIdleEntries(t *testing.T) {
	locks := newKeyedLocks()

	for i := 0; i < 100; i++ {
		unlock := locks.Lock("ratelimit", string(rune('a'+i%26))+string(rune('0'+i/26)))
		unlock()
	}

	locks.mu.Lock()
	n := len(locks.locks)
	locks.mu.Unlock()
	if n != 0 {
		t.Fatalf("idle entries must be evicted, %d left", n)
	}
}

func TestKeyedLocksEvictionKeepsContendedEntry(t *testing.T) {
	locks := newKeyedLocks()

	unlock1 := locks.Lock("b", "k")

	released := make(chan struct{})
	go func() {
		unlock2 := locks.Lock("b", "k")
		unlock2()
		close(released)
	}()

	// Wait for the second holder to register, then release. The entry
	// must be handed over, not evicted out from under the waiter.
	for {
		locks.mu.Lock()
		registered := locks.locks["b/k"] != nil && locks.locks["b/k"].refs == 2
		locks.mu.Unlock()
		if registered {
			break
		}
		time.Sleep(time.Millisecond)
	}
	unlock1()
	<-released

	locks.mu.Lock()
	n := len(locks.locks)
	locks.mu.Unlock()
	if n != 0 {
		t.Fatalf("entry must be gone after the last holder, %d left", n)
	}
}
