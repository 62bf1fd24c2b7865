// Package store owns the per-page webmention documents. One JSON array
// per slug, deduplicated by source URL, persisted through the kv
// backend with per-slug write locking.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/bridgekit/mentiond/internal/cache"
	"github.com/bridgekit/mentiond/internal/domain"
	"github.com/bridgekit/mentiond/internal/kv"
)

const bucket = "webmentions"

// slugKey reduces a slug to the filesystem-safe storage key set.
var slugKey = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Query narrows and orders a read. Zero values mean no type filter and
// the configured default order.
type Query struct {
	Type  domain.MentionType
	Order string // "asc" or "desc"
}

// Store is the durable webmention document store.
type Store struct {
	kv           kv.Store
	cache        cache.Cache
	invalidator  domain.CacheInvalidator
	logger       *slog.Logger
	defaultOrder string
}

func New(kvs kv.Store, c cache.Cache, invalidator domain.CacheInvalidator, logger *slog.Logger, defaultOrder string) *Store {
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if defaultOrder == "" {
		defaultOrder = "desc"
	}
	return &Store{
		kv:           kvs,
		cache:        c,
		invalidator:  invalidator,
		logger:       logger,
		defaultOrder: defaultOrder,
	}
}

// Save upserts one mention into the slug's document. A record with the
// same source replaces the existing one in place; the document is then
// re-sorted by receipt time, newest first, and persisted atomically.
func (s *Store) Save(ctx context.Context, slug string, mention domain.Webmention) error {
	key := SanitizeSlug(slug)
	unlock := s.kv.Lock(bucket, key)
	defer unlock()

	mentions, err := s.load(ctx, key)
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range mentions {
		if existing.Source == mention.Source {
			mentions[i] = mention
			replaced = true
			break
		}
	}
	if !replaced {
		mentions = append(mentions, mention)
	}

	sort.SliceStable(mentions, func(i, j int) bool {
		return receivedTime(mentions[i]).After(receivedTime(mentions[j]))
	})

	if err := s.persist(ctx, key, mentions); err != nil {
		return err
	}

	s.signal(ctx, slug)
	return nil
}

// GetBySlug returns the slug's mentions, optionally filtered by type,
// sorted by the claimed publish time when present else the receipt
// time. Unknown slugs yield an empty list.
func (s *Store) GetBySlug(ctx context.Context, slug string, q Query) ([]domain.Webmention, error) {
	mentions, err := s.loadCached(ctx, SanitizeSlug(slug))
	if err != nil {
		return nil, err
	}

	if q.Type != "" {
		filtered := make([]domain.Webmention, 0, len(mentions))
		for _, m := range mentions {
			if m.Type == q.Type {
				filtered = append(filtered, m)
			}
		}
		mentions = filtered
	}

	order := q.Order
	if order == "" {
		order = s.defaultOrder
	}
	sort.SliceStable(mentions, func(i, j int) bool {
		ti, tj := mentions[i].SortTime(), mentions[j].SortTime()
		if order == "desc" {
			return ti.After(tj)
		}
		return ti.Before(tj)
	})

	return mentions, nil
}

// GetCounts aggregates the full document by type, ignoring any filter.
func (s *Store) GetCounts(ctx context.Context, slug string) (domain.Counts, error) {
	mentions, err := s.loadCached(ctx, SanitizeSlug(slug))
	if err != nil {
		return domain.Counts{}, err
	}

	counts := domain.Counts{Total: len(mentions)}
	for _, m := range mentions {
		switch m.Type {
		case domain.TypeLike:
			counts.Likes++
		case domain.TypeRepost:
			counts.Reposts++
		case domain.TypeReply:
			counts.Replies++
		case domain.TypeBookmark:
			counts.Bookmarks++
		default:
			counts.Mentions++
		}
	}
	return counts, nil
}

// Delete removes one mention by id; an unknown id is a NotFoundError.
func (s *Store) Delete(ctx context.Context, slug, id string) error {
	key := SanitizeSlug(slug)
	unlock := s.kv.Lock(bucket, key)
	defer unlock()

	mentions, err := s.load(ctx, key)
	if err != nil {
		return err
	}

	kept := mentions[:0]
	for _, m := range mentions {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(mentions) {
		return domain.NotFoundError{Resource: "webmention"}
	}

	if err := s.persist(ctx, key, kept); err != nil {
		return err
	}

	s.signal(ctx, slug)
	return nil
}

// DeleteAll removes the slug's entire document.
func (s *Store) DeleteAll(ctx context.Context, slug string) error {
	key := SanitizeSlug(slug)
	unlock := s.kv.Lock(bucket, key)
	defer unlock()

	if err := s.kv.Delete(ctx, bucket, key); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, key)

	s.signal(ctx, slug)
	return nil
}

// SanitizeSlug maps a slug onto the storage key character set to keep
// keys path-traversal-safe.
func SanitizeSlug(slug string) string {
	return slugKey.ReplaceAllString(slug, "_")
}

func (s *Store) load(ctx context.Context, key string) ([]domain.Webmention, error) {
	data, found, err := s.kv.Get(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return decode(data)
}

// loadCached is the read path: cache hit wins, misses fill the cache.
func (s *Store) loadCached(ctx context.Context, key string) ([]domain.Webmention, error) {
	if data, found := s.cache.Get(ctx, key); found {
		if mentions, err := decode(data); err == nil {
			return mentions, nil
		}
		// A corrupt cache entry falls through to the store.
		s.cache.Invalidate(ctx, key)
	}

	data, found, err := s.kv.Get(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	mentions, err := decode(data)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, data)
	return mentions, nil
}

func (s *Store) persist(ctx context.Context, key string, mentions []domain.Webmention) error {
	data, err := json.MarshalIndent(mentions, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode document")
	}
	if err := s.kv.Put(ctx, bucket, key, data); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, key)
	return nil
}

// signal tells the host that anything rendered for slug is stale.
func (s *Store) signal(ctx context.Context, slug string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, slug); err != nil {
		s.logger.Warn("cache invalidation failed", slog.String("slug", slug), slog.String("error", err.Error()))
	}
}

func decode(data []byte) ([]domain.Webmention, error) {
	var mentions []domain.Webmention
	if err := json.Unmarshal(data, &mentions); err != nil {
		return nil, errors.Wrap(err, "decode document")
	}
	return mentions, nil
}

func receivedTime(m domain.Webmention) time.Time {
	t, err := domain.ParseTimestamp(m.Received)
	if err != nil {
		return time.Time{}
	}
	return t
}
