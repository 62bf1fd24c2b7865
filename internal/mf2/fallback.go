package mf2

import (
	"html"
	"regexp"
	"strings"

	"github.com/bridgekit/mentiond/internal/domain"
)

// RegexExtractor scrapes microformat markers straight out of the raw
// markup. Permissive and lossy on purpose: it reports whatever its
// patterns match, resolves nothing, and classifies everything else as
// a mention.
type RegexExtractor struct{}

func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

var (
	reLikeOf     = regexp.MustCompile(`(?i)class="[^"]*u-like-of[^"]*"`)
	reRepostOf   = regexp.MustCompile(`(?i)class="[^"]*u-repost-of[^"]*"`)
	reInReplyTo  = regexp.MustCompile(`(?i)class="[^"]*u-in-reply-to[^"]*"`)
	reBookmarkOf = regexp.MustCompile(`(?i)class="[^"]*u-bookmark-of[^"]*"`)

	reAuthorName  = regexp.MustCompile(`(?i)class="[^"]*p-name[^"]*"[^>]*>([^<]+)<`)
	reAuthorURL   = regexp.MustCompile(`(?i)<a[^>]*class="[^"]*u-url[^"]*"[^>]*href="([^"]+)"`)
	reAuthorPhoto = regexp.MustCompile(`(?i)<img[^>]*class="[^"]*u-photo[^"]*"[^>]*src="([^"]+)"`)

	reEContent = regexp.MustCompile(`(?is)<[^>]*class="[^"]*e-content[^"]*"[^>]*>(.*?)</(?:div|p|article)>`)
	rePContent = regexp.MustCompile(`(?is)<[^>]*class="[^"]*p-content[^"]*"[^>]*>(.*?)</(?:div|p|article)>`)

	rePublished = regexp.MustCompile(`(?i)<time[^>]*class="[^"]*dt-published[^"]*"[^>]*datetime="([^"]+)"`)

	// Tags kept when scraping content out of e-content blocks.
	reContentTag = regexp.MustCompile(`(?i)</?(p|br|a|em|strong)(\s[^>]*)?/?>`)
	reAnyTag     = regexp.MustCompile(`(?s)<[^>]*>`)
)

func (e *RegexExtractor) Extract(htmlBytes []byte, sourceURL string) domain.Interaction {
	doc := string(htmlBytes)
	interaction := emptyInteraction()

	interaction.Type = detectType(func(prop string) bool {
		switch prop {
		case "like-of":
			return reLikeOf.MatchString(doc)
		case "repost-of":
			return reRepostOf.MatchString(doc)
		case "in-reply-to":
			return reInReplyTo.MatchString(doc)
		case "bookmark-of":
			return reBookmarkOf.MatchString(doc)
		}
		return false
	})

	if m := reAuthorName.FindStringSubmatch(doc); m != nil {
		interaction.Author.Name = strings.TrimSpace(html.UnescapeString(m[1]))
	}
	if m := reAuthorURL.FindStringSubmatch(doc); m != nil {
		interaction.Author.URL = m[1]
		// The first u-url doubles as the source's own canonical URL;
		// a dedicated entry u-url is indistinguishable here.
		interaction.OriginalURL = m[1]
	}
	if m := reAuthorPhoto.FindStringSubmatch(doc); m != nil {
		interaction.Author.Photo = m[1]
	}

	if m := reEContent.FindStringSubmatch(doc); m != nil {
		interaction.Content = stripToContentTags(m[1])
	} else if m := rePContent.FindStringSubmatch(doc); m != nil {
		interaction.Content = stripToContentTags(m[1])
	}

	if m := rePublished.FindStringSubmatch(doc); m != nil {
		interaction.Published = m[1]
	}

	return interaction
}

// stripToContentTags removes every tag except the small inline set the
// original scraper kept.
func stripToContentTags(s string) string {
	s = reAnyTag.ReplaceAllStringFunc(s, func(tag string) string {
		if reContentTag.MatchString(tag) {
			return tag
		}
		return ""
	})
	return strings.TrimSpace(s)
}
