package domain

import (
	"context"
	"time"
)

// Page is the narrow view of a host page the pipeline needs: identity,
// canonical URL, publish date and the bridge-related metadata flags.
type Page interface {
	Slug() string
	URL() string
	Date() time.Time
	// NoBridge is the opt-out marker: true means never notify the bridge.
	NoBridge() bool
	// ReplyTo is the remote post this page replies to, empty when none.
	ReplyTo() string
	// PublishedAt is the marker set after a successful send, empty when unsent.
	PublishedAt() string
	// SetPublishedAt persists the marker through the host.
	SetPublishedAt(ctx context.Context, ts string) error
}

// PageResolver looks up a local page by URL path, after any locale
// prefix has been stripped. A nil page with nil error means unknown.
type PageResolver interface {
	FindByPath(ctx context.Context, path string) (Page, error)
}

// CacheInvalidator receives the signal that a page's interaction
// document changed and any rendered output for it is stale.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, slug string) error
}
