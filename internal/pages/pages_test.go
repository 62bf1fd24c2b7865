package pages

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const registry = `pages:
  - slug: post-1
    path: /post-1
    date: 2026-05-01
  - slug: post-2
    path: /notes/post-2
    url: https://alias.example/p2
    nobridge: true
    replyTo: https://remote.example/@user/123
  - slug: post-3
    path: /post-3
    publishedAt: "2026-05-02T09:00:00Z"
`

func writeRegistry(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pages.yaml")
	if err := os.WriteFile(path, []byte(registry), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindByPath(t *testing.T) {
	idx, err := Load(writeRegistry(t), "https://example.test/")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	p, err := idx.FindByPath(ctx, "/post-1")
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || p.Slug() != "post-1" {
		t.Fatalf("lookup: got %v", p)
	}
	if p.URL() != "https://example.test/post-1" {
		t.Fatalf("derived url: got %q", p.URL())
	}
	if want := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC); !p.Date().Equal(want) {
		t.Fatalf("date: got %v", p.Date())
	}

	p, err = idx.FindByPath(ctx, "/nowhere")
	if err != nil {
		t.Fatal(err)
	}
	if p != nil {
		t.Fatalf("unknown path must resolve to nil, got %v", p)
	}
}

func TestFindByPathIgnoresTrailingSlash(t *testing.T) {
	idx, err := Load(writeRegistry(t), "https://example.test")
	if err != nil {
		t.Fatal(err)
	}

	p, err := idx.FindByPath(context.Background(), "/post-1/")
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || p.Slug() != "post-1" {
		t.Fatalf("trailing slash lookup: got %v", p)
	}
}

func TestExplicitURLAndFlags(t *testing.T) {
	idx, err := Load(writeRegistry(t), "https://example.test")
	if err != nil {
		t.Fatal(err)
	}

	p, err := idx.FindBySlug(context.Background(), "post-2")
	if err != nil {
		t.Fatal(err)
	}
	if p.URL() != "https://alias.example/p2" {
		t.Fatalf("explicit url must win, got %q", p.URL())
	}
	if !p.NoBridge() {
		t.Fatalf("nobridge flag lost")
	}
	if p.ReplyTo() != "https://remote.example/@user/123" {
		t.Fatalf("replyTo: got %q", p.ReplyTo())
	}
}

func TestSetPublishedAtPersists(t *testing.T) {
	path := writeRegistry(t)
	idx, err := Load(path, "https://example.test")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	p, err := idx.FindBySlug(ctx, "post-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.PublishedAt() != "" {
		t.Fatalf("fresh page must be unsent, got %q", p.PublishedAt())
	}

	if err := p.SetPublishedAt(ctx, "2026-08-30T12:00:00Z"); err != nil {
		t.Fatal(err)
	}

	// A reload sees the marker, and the untouched entries survive.
	reloaded, err := Load(path, "https://example.test")
	if err != nil {
		t.Fatal(err)
	}
	p2, err := reloaded.FindBySlug(ctx, "post-1")
	if err != nil {
		t.Fatal(err)
	}
	if p2.PublishedAt() != "2026-08-30T12:00:00Z" {
		t.Fatalf("marker not persisted, got %q", p2.PublishedAt())
	}
	p3, _ := reloaded.FindBySlug(ctx, "post-3")
	if p3.PublishedAt() != "2026-05-02T09:00:00Z" {
		t.Fatalf("existing marker clobbered, got %q", p3.PublishedAt())
	}
	if n, _ := reloaded.All(ctx); len(n) != 3 {
		t.Fatalf("page count after rewrite: got %d", len(n))
	}
}

func TestLoadRejectsIncompleteEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.yaml")
	if err := os.WriteFile(path, []byte("pages:\n  - slug: lonely\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path, "https://example.test")
	if err == nil || !strings.Contains(err.Error(), "missing slug or path") {
		t.Fatalf("expected missing-path error, got %v", err)
	}
}
