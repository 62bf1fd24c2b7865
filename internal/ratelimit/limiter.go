// Package ratelimit is sliding-window admission control per client
// identity, backed by one kv record per identity.
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/bridgekit/mentiond/internal/kv"
)

const bucket = "ratelimit"

// Limiter admits at most MaxRequests per identity per trailing window.
type Limiter struct {
	store   kv.Store
	logger  *slog.Logger
	enabled bool
	max     int
	window  time.Duration

	now func() time.Time
}

type Options struct {
	Enabled       bool
	MaxRequests   int
	WindowSeconds int
}

func New(store kv.Store, logger *slog.Logger, opts Options) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		store:   store,
		logger:  logger,
		enabled: opts.Enabled,
		max:     opts.MaxRequests,
		window:  time.Duration(opts.WindowSeconds) * time.Second,
		now:     time.Now,
	}
}

// Identity hashes a raw client address into the storage key. Raw
// addresses are never persisted.
func Identity(addr string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(addr))
}

// Allow reports whether a request from addr is admitted now, and on
// admission records the request. The check-then-append cycle holds the
// identity's write lock so concurrent requests cannot share one slot.
func (l *Limiter) Allow(ctx context.Context, addr string) (bool, error) {
	if !l.enabled {
		return true, nil
	}

	id := Identity(addr)
	unlock := l.store.Lock(bucket, id)
	defer unlock()

	now := l.now().Unix()
	windowStart := now - int64(l.window.Seconds())

	stamps, err := l.load(ctx, id)
	if err != nil {
		return false, err
	}
	stamps = prune(stamps, windowStart)

	if len(stamps) >= l.max {
		return false, nil
	}

	stamps = append(stamps, now)

	// Cap record growth independently of pruning.
	if len(stamps) > l.max*2 {
		stamps = stamps[len(stamps)-l.max*2:]
	}

	return true, l.save(ctx, id, stamps)
}

// Remaining returns how many requests addr has left in the current
// window, floored at zero. Disabled limiters report math.MaxInt.
func (l *Limiter) Remaining(ctx context.Context, addr string) (int, error) {
	if !l.enabled {
		return math.MaxInt, nil
	}

	id := Identity(addr)
	windowStart := l.now().Unix() - int64(l.window.Seconds())

	stamps, err := l.load(ctx, id)
	if err != nil {
		return 0, err
	}
	stamps = prune(stamps, windowStart)

	remaining := l.max - len(stamps)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset discards the record for addr.
func (l *Limiter) Reset(ctx context.Context, addr string) error {
	id := Identity(addr)
	unlock := l.store.Lock(bucket, id)
	defer unlock()
	return l.store.Delete(ctx, bucket, id)
}

// Sweep discards every record whose newest timestamp is older than two
// window lengths. It runs off the request path, periodically.
func (l *Limiter) Sweep(ctx context.Context) error {
	if !l.enabled {
		return nil
	}

	cutoff := l.now().Unix() - 2*int64(l.window.Seconds())

	ids, err := l.store.Keys(ctx, bucket)
	if err != nil {
		return err
	}

	removed := 0
	for _, id := range ids {
		stamps, err := l.load(ctx, id)
		if err != nil {
			l.logger.Warn("sweep: unreadable rate limit record", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		if newest(stamps) >= cutoff {
			continue
		}
		unlock := l.store.Lock(bucket, id)
		err = l.store.Delete(ctx, bucket, id)
		unlock()
		if err != nil {
			return err
		}
		removed++
	}

	l.logger.Info("rate limit sweep complete", slog.Int("scanned", len(ids)), slog.Int("removed", removed))
	return nil
}

func (l *Limiter) load(ctx context.Context, id string) ([]int64, error) {
	data, found, err := l.store.Get(ctx, bucket, id)
	if err != nil || !found {
		return nil, err
	}
	var stamps []int64
	if err := json.Unmarshal(data, &stamps); err != nil {
		// A corrupt record resets the identity rather than wedging it.
		l.logger.Warn("corrupt rate limit record, resetting", slog.String("id", id))
		return nil, nil
	}
	return stamps, nil
}

func (l *Limiter) save(ctx context.Context, id string, stamps []int64) error {
	data, err := json.Marshal(stamps)
	if err != nil {
		return err
	}
	return l.store.Put(ctx, bucket, id, data)
}

func prune(stamps []int64, windowStart int64) []int64 {
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts >= windowStart {
			kept = append(kept, ts)
		}
	}
	return kept
}

func newest(stamps []int64) int64 {
	var max int64
	for _, ts := range stamps {
		if ts > max {
			max = ts
		}
	}
	return max
}
