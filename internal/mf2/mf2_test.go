package mf2

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bridgekit/mentiond/internal/domain"
)

const likeEntry = `<html><body>
<article class="h-entry">
  <a class="u-like-of" href="https://example.test/post-1">liked</a>
</article>
</body></html>`

func TestTreeDetectsLike(t *testing.T) {
	got := NewTreeExtractor().Extract([]byte(likeEntry), "https://fed.brid.gy/r/abc")
	assert.Equal(t, domain.TypeLike, got.Type)
}

func TestTreeTypePriority(t *testing.T) {
	cases := []struct {
		name string
		html string
		want domain.MentionType
	}{
		{
			name: "like beats reply",
			html: `<div class="h-entry">
				<a class="u-in-reply-to" href="/a">r</a>
				<a class="u-like-of" href="/b">l</a>
			</div>`,
			want: domain.TypeLike,
		},
		{
			name: "repost beats bookmark",
			html: `<div class="h-entry">
				<a class="u-bookmark-of" href="/a">b</a>
				<a class="u-repost-of" href="/b">r</a>
			</div>`,
			want: domain.TypeRepost,
		},
		{
			name: "reply beats bookmark",
			html: `<div class="h-entry">
				<a class="u-bookmark-of u-in-reply-to" href="/a">x</a>
			</div>`,
			want: domain.TypeReply,
		},
		{
			name: "bookmark alone",
			html: `<div class="h-entry"><a class="u-bookmark-of" href="/a">b</a></div>`,
			want: domain.TypeBookmark,
		},
		{
			name: "no marker is a mention",
			html: `<div class="h-entry"><p class="e-content">just a link</p></div>`,
			want: domain.TypeMention,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewTreeExtractor().Extract([]byte(tc.html), "https://src.example/p")
			assert.Equal(t, tc.want, got.Type)
		})
	}
}

func TestTreeAuthorFromEntryCard(t *testing.T) {
	doc := `<div class="h-entry">
		<div class="p-author h-card">
			<img class="u-photo" src="/alice.jpg">
			<a class="u-url" href="/alice"><span class="p-name">Alice</span></a>
		</div>
		<div class="e-content"><p>hi there</p></div>
	</div>`

	got := NewTreeExtractor().Extract([]byte(doc), "https://src.example/post")
	assert.Equal(t, "Alice", got.Author.Name)
	assert.Equal(t, "https://src.example/alice", got.Author.URL)
	assert.Equal(t, "https://src.example/alice.jpg", got.Author.Photo)
	assert.Equal(t, "<p>hi there</p>", got.Content)
}

func TestTreeAuthorFallsBackToRootCard(t *testing.T) {
	doc := `<body>
		<div class="h-card">
			<a class="u-url" href="https://bob.example"><span class="p-name">Bob</span></a>
		</div>
		<div class="h-entry"><p class="p-name">a note</p></div>
	</body>`

	got := NewTreeExtractor().Extract([]byte(doc), "https://src.example/post")
	assert.Equal(t, "Bob", got.Author.Name)
	assert.Equal(t, "https://bob.example", got.Author.URL)
	assert.Equal(t, "a note", got.Content)
}

func TestTreeAuthorPlainText(t *testing.T) {
	doc := `<div class="h-entry"><span class="p-author">Carol</span></div>`
	got := NewTreeExtractor().Extract([]byte(doc), "https://src.example/p")
	assert.Equal(t, "Carol", got.Author.Name)
	assert.Empty(t, got.Author.URL)
}

func TestTreeContentFallbackChain(t *testing.T) {
	summary := `<div class="h-entry"><p class="p-summary">the summary</p><p class="p-name">the name</p></div>`
	got := NewTreeExtractor().Extract([]byte(summary), "https://s.example")
	assert.Equal(t, "the summary", got.Content)

	nameOnly := `<div class="h-entry"><p class="p-name">the name</p></div>`
	got = NewTreeExtractor().Extract([]byte(nameOnly), "https://s.example")
	assert.Equal(t, "the name", got.Content)

	nothing := `<div class="h-entry"><p>untyped</p></div>`
	got = NewTreeExtractor().Extract([]byte(nothing), "https://s.example")
	assert.Empty(t, got.Content)
}

func TestTreePublishedAndOriginalURL(t *testing.T) {
	doc := `<div class="h-entry">
		<a class="u-url" href="/status/42">permalink</a>
		<time class="dt-published" datetime="2026-05-01T10:00:00Z">May 1</time>
	</div>`

	got := NewTreeExtractor().Extract([]byte(doc), "https://src.example/status/42?x=1")
	assert.Equal(t, "2026-05-01T10:00:00Z", got.Published)
	assert.Equal(t, "https://src.example/status/42", got.OriginalURL)
}

func TestTreeNoEntryIsDefaultMention(t *testing.T) {
	got := NewTreeExtractor().Extract([]byte(`<html><body><p>plain page</p></body></html>`), "https://s.example")
	assert.Equal(t, domain.Interaction{Type: domain.TypeMention}, got)
}

func TestTreeNestedEntryDepthFirst(t *testing.T) {
	doc := `<div class="h-feed">
		<div class="wrapper">
			<div class="h-entry"><a class="u-repost-of" href="/x">first</a></div>
		</div>
		<div class="h-entry"><a class="u-like-of" href="/y">second</a></div>
	</div>`

	got := NewTreeExtractor().Extract([]byte(doc), "https://s.example")
	assert.Equal(t, domain.TypeRepost, got.Type)
}

func TestTreeNestedCardDoesNotLeakIntoEntryProps(t *testing.T) {
	// The author card's u-url must not become the entry's original_url.
	doc := `<div class="h-entry">
		<div class="p-author h-card"><a class="u-url p-name" href="/alice">Alice</a></div>
		<p class="e-content">note</p>
	</div>`

	got := NewTreeExtractor().Extract([]byte(doc), "https://src.example/p")
	assert.Empty(t, got.OriginalURL)
	assert.Equal(t, "https://src.example/alice", got.Author.URL)
}

func TestRegexFallbackFields(t *testing.T) {
	doc := `<html><body>
	<div class="h-entry">
		<a class="u-in-reply-to" href="https://example.test/post-1">in reply</a>
		<span class="p-name">Dana</span>
		<a class="u-url" href="https://dana.example/note/9">permalink</a>
		<img class="u-photo" src="https://dana.example/me.png">
		<div class="e-content"><p>nice <script>bad()</script>post</p></div>
		<time class="dt-published" datetime="2026-04-02T08:00:00Z">Apr 2</time>
	</div>
	</body></html>`

	got := NewRegexExtractor().Extract([]byte(doc), "https://dana.example/note/9")
	assert.Equal(t, domain.TypeReply, got.Type)
	assert.Equal(t, "Dana", got.Author.Name)
	assert.Equal(t, "https://dana.example/note/9", got.Author.URL)
	assert.Equal(t, "https://dana.example/me.png", got.Author.Photo)
	assert.Equal(t, "2026-04-02T08:00:00Z", got.Published)
	// The closing tag is consumed by the block terminator; lossy by design.
	assert.Equal(t, "<p>nice bad()post", got.Content)
}

func TestRegexFallbackTypePriority(t *testing.T) {
	doc := `<div class="h-entry">
		<a class="u-in-reply-to" href="/a">r</a>
		<a class="u-like-of" href="/b">l</a>
	</div>`
	got := NewRegexExtractor().Extract([]byte(doc), "https://s.example")
	assert.Equal(t, domain.TypeLike, got.Type)
}

func TestRegexFallbackEmptyDocument(t *testing.T) {
	got := NewRegexExtractor().Extract([]byte(""), "https://s.example")
	assert.Equal(t, domain.TypeMention, got.Type)
	assert.Empty(t, got.Content)
	assert.Empty(t, got.Author.Name)
}

func TestParserNeverFails(t *testing.T) {
	p := NewParser()
	for _, doc := range []string{"", "<<<>>>", "\x00garbage", likeEntry} {
		got := p.Extract([]byte(doc), "https://s.example")
		assert.True(t, domain.KnownType(got.Type), "doc %q produced type %q", doc, got.Type)
	}
}
