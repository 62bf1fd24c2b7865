package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// InvalidateChannel carries change notifications for page documents.
// Other site processes (renderers, edge caches) subscribe to it.
const InvalidateChannel = "mentiond:invalidate"

// InvalidateEvent is the payload published when a page's webmention
// document changes.
type InvalidateEvent struct {
	Slug string    `json:"slug"`
	At   time.Time `json:"at"`
}

// SignalService fans out invalidation events over redis pub/sub. With
// no redis client configured it is a no-op.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Invalidate(ctx context.Context, slug string) error {
	if s.rdb == nil {
		return nil
	}

	payload, err := json.Marshal(InvalidateEvent{Slug: slug, At: time.Now().UTC()})
	if err != nil {
		return errors.Wrap(err, "signal: marshal")
	}

	if err := s.rdb.Publish(ctx, InvalidateChannel, payload).Err(); err != nil {
		return errors.Wrap(err, "signal: publish")
	}
	return nil
}
