package usecase

import (
	"context"

	"github.com/bridgekit/mentiond/internal/domain"
	"github.com/bridgekit/mentiond/internal/store"
)

// RateLimiter admits or rejects a request from a raw client address.
type RateLimiter interface {
	Allow(ctx context.Context, addr string) (bool, error)
}

// SourceFetcher retrieves a webmention source document.
type SourceFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Extractor turns fetched HTML into a normalized interaction.
// Extraction never fails; unusable documents degrade to a mention.
type Extractor interface {
	Extract(html []byte, sourceURL string) domain.Interaction
}

// Sanitizer cleans extracted content before storage.
type Sanitizer interface {
	Sanitize(content string) string
}

// MentionStore is the durable per-slug document store. Delete reports
// an unknown id as a domain.NotFoundError.
type MentionStore interface {
	Save(ctx context.Context, slug string, mention domain.Webmention) error
	GetBySlug(ctx context.Context, slug string, q store.Query) ([]domain.Webmention, error)
	GetCounts(ctx context.Context, slug string) (domain.Counts, error)
	Delete(ctx context.Context, slug, id string) error
	DeleteAll(ctx context.Context, slug string) error
}
