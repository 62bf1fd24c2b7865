// Package sanitize reduces remote HTML to a small allow-list of inline
// and structural tags. It is deliberately regex-over-string, matching
// the permissive contract of the fallback extractor: deterministic,
// never failing, and not a full HTML rewriter.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

// allowedTags is the fixed keep-list; everything else is stripped,
// keeping inner text.
var allowedTags = map[string]bool{
	"p": true, "br": true, "a": true, "em": true, "strong": true,
	"b": true, "i": true, "u": true, "s": true, "blockquote": true,
	"pre": true, "code": true, "ul": true, "ol": true, "li": true,
	"img": true,
}

var (
	// Containers whose content is executable or invisible go away
	// entirely, content included.
	reDropBlocks = regexp.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(?:script|style)>`)

	reTag     = regexp.MustCompile(`(?s)<[^>]*>`)
	reTagName = regexp.MustCompile(`^</?\s*([a-zA-Z0-9]+)`)

	// Inline event handlers, both quote forms.
	reOnAttrDouble = regexp.MustCompile(`(?i)\s*on\w+="[^"]*"`)
	reOnAttrSingle = regexp.MustCompile(`(?i)\s*on\w+='[^']*'`)

	reImg     = regexp.MustCompile(`(?i)<img\s+([^>]*)>`)
	reImgSrc  = regexp.MustCompile(`(?i)src="([^"]*)"`)
	reImgAlt  = regexp.MustCompile(`(?i)alt="([^"]*)"`)
	reAnchor  = regexp.MustCompile(`(?is)<a\s+([^>]*)>(.*?)</a>`)
	reAhref   = regexp.MustCompile(`(?i)href="([^"]*)"`)
)

const ellipsis = "..."

// Sanitizer cleans extracted interaction content before storage.
type Sanitizer struct {
	enabled   bool
	maxLength int // runes
}

func New(enabled bool, maxLength int) *Sanitizer {
	return &Sanitizer{
		enabled:   enabled,
		maxLength: maxLength,
	}
}

// Sanitize is pure and never fails. With sanitization disabled only
// the length cap applies, a bare cut with no ellipsis marker; that
// mode is for trusted deployments only.
func (s *Sanitizer) Sanitize(content string) string {
	if !s.enabled {
		runes := []rune(content)
		if s.maxLength > 0 && len(runes) > s.maxLength {
			return string(runes[:s.maxLength])
		}
		return content
	}

	content = reDropBlocks.ReplaceAllString(content, "")
	content = stripDisallowedTags(content)
	content = reOnAttrDouble.ReplaceAllString(content, "")
	content = reOnAttrSingle.ReplaceAllString(content, "")
	content = rewriteImages(content)
	content = rewriteAnchors(content)

	return truncate(content, s.maxLength)
}

func stripDisallowedTags(content string) string {
	return reTag.ReplaceAllStringFunc(content, func(tag string) string {
		m := reTagName.FindStringSubmatch(tag)
		if m == nil {
			return ""
		}
		if allowedTags[strings.ToLower(m[1])] {
			return tag
		}
		return ""
	})
}

// rewriteImages keeps only an escaped src and alt on retained images.
func rewriteImages(content string) string {
	return reImg.ReplaceAllStringFunc(content, func(tag string) string {
		attrs := reImg.FindStringSubmatch(tag)[1]

		var kept []string
		if m := reImgSrc.FindStringSubmatch(attrs); m != nil {
			kept = append(kept, `src="`+html.EscapeString(m[1])+`"`)
		}
		if m := reImgAlt.FindStringSubmatch(attrs); m != nil {
			kept = append(kept, `alt="`+html.EscapeString(m[1])+`"`)
		}
		return "<img " + strings.Join(kept, " ") + ">"
	})
}

// rewriteAnchors keeps only an escaped href and forces the safety rel;
// an anchor without href unwraps to its text.
func rewriteAnchors(content string) string {
	return reAnchor.ReplaceAllStringFunc(content, func(tag string) string {
		m := reAnchor.FindStringSubmatch(tag)
		attrs, text := m[1], m[2]

		if h := reAhref.FindStringSubmatch(attrs); h != nil {
			return `<a href="` + html.EscapeString(h[1]) + `" rel="nofollow noopener">` + text + `</a>`
		}
		return text
	})
}

// truncate cuts at maxLength runes, not bytes, so multi-byte
// characters never split.
func truncate(content string, maxLength int) string {
	if maxLength <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= maxLength {
		return content
	}
	return string(runes[:maxLength]) + ellipsis
}
