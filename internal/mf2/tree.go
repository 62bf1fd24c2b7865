package mf2

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/bridgekit/mentiond/internal/domain"
)

// TreeExtractor walks the parsed HTML tree. Property lookup is scoped
// the way microformats2 scopes it: a nested microformat root (h-*)
// contributes the property declared on its own element but hides its
// internals from the enclosing entry.
type TreeExtractor struct{}

func NewTreeExtractor() *TreeExtractor {
	return &TreeExtractor{}
}

func (e *TreeExtractor) Extract(htmlBytes []byte, sourceURL string) domain.Interaction {
	interaction, ok := e.extract(htmlBytes, sourceURL)
	if !ok {
		return emptyInteraction()
	}
	return interaction
}

func (e *TreeExtractor) extract(htmlBytes []byte, sourceURL string) (domain.Interaction, bool) {
	root, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return domain.Interaction{}, false
	}

	entry := findEntry(root)
	if entry == nil {
		return emptyInteraction(), true
	}

	base, err := url.Parse(sourceURL)
	if err != nil {
		base = nil
	}

	interaction := domain.Interaction{
		Type: detectType(func(prop string) bool {
			return findProp(entry, "u-"+prop) != nil || findProp(entry, "p-"+prop) != nil
		}),
		Author:      extractAuthor(root, entry, base),
		Content:     extractContent(entry),
		Published:   extractPublished(entry),
		OriginalURL: extractOriginalURL(entry, base),
	}
	return interaction, true
}

// findEntry returns the first h-entry in document order, searching
// depth-first so nested entries are found too.
func findEntry(n *html.Node) *html.Node {
	if hasClass(n, "h-entry") {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findEntry(c); found != nil {
			return found
		}
	}
	return nil
}

// findProp finds the first descendant of root carrying the class
// token, skipping the internals of nested microformat roots.
func findProp(root *html.Node, class string) *html.Node {
	var search func(n *html.Node) *html.Node
	search = func(n *html.Node) *html.Node {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				if hasClass(c, class) {
					return c
				}
				if isMicroformatRoot(c) {
					continue
				}
			}
			if found := search(c); found != nil {
				return found
			}
		}
		return nil
	}
	if hasClass(root, class) {
		return root
	}
	return search(root)
}

func extractAuthor(doc, entry *html.Node, base *url.URL) domain.Author {
	if node := findProp(entry, "p-author"); node != nil {
		if hasClass(node, "h-card") {
			return cardAuthor(node, base)
		}
		author := domain.Author{Name: textContent(node)}
		if node.Data == "a" {
			author.URL = resolveRef(attr(node, "href"), base)
		}
		return author
	}

	// Fall back to the first h-card outside the entry.
	if card := findCardOutside(doc, entry); card != nil {
		return cardAuthor(card, base)
	}

	return domain.Author{}
}

func cardAuthor(card *html.Node, base *url.URL) domain.Author {
	author := domain.Author{}

	if n := findProp(card, "p-name"); n != nil {
		author.Name = textContent(n)
	} else {
		author.Name = textContent(card)
	}

	if n := findProp(card, "u-url"); n != nil {
		author.URL = resolveRef(urlValue(n), base)
	} else if card.Data == "a" {
		author.URL = resolveRef(attr(card, "href"), base)
	}

	if n := findProp(card, "u-photo"); n != nil {
		if n.Data == "img" {
			author.Photo = resolveRef(attr(n, "src"), base)
		} else {
			author.Photo = resolveRef(urlValue(n), base)
		}
	}

	return author
}

func findCardOutside(n, exclude *html.Node) *html.Node {
	if n == exclude {
		return nil
	}
	if hasClass(n, "h-card") {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findCardOutside(c, exclude); found != nil {
			return found
		}
	}
	return nil
}

func extractContent(entry *html.Node) string {
	if n := findProp(entry, "e-content"); n != nil {
		return strings.TrimSpace(innerHTML(n))
	}
	if n := findProp(entry, "p-summary"); n != nil {
		return textContent(n)
	}
	if n := findProp(entry, "p-name"); n != nil {
		return textContent(n)
	}
	return ""
}

func extractPublished(entry *html.Node) string {
	n := findProp(entry, "dt-published")
	if n == nil {
		return ""
	}
	if dt := attr(n, "datetime"); dt != "" {
		return dt
	}
	return textContent(n)
}

func extractOriginalURL(entry *html.Node, base *url.URL) string {
	n := findProp(entry, "u-url")
	if n == nil {
		return ""
	}
	return resolveRef(urlValue(n), base)
}

// urlValue pulls the URL carried by a u-* property element.
func urlValue(n *html.Node) string {
	switch n.Data {
	case "a", "area", "link":
		return attr(n, "href")
	case "img":
		return attr(n, "src")
	}
	if href := attr(n, "href"); href != "" {
		return href
	}
	return textContent(n)
}

func resolveRef(ref string, base *url.URL) string {
	if ref == "" || base == nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}

func isMicroformatRoot(n *html.Node) bool {
	for _, token := range classTokens(n) {
		if strings.HasPrefix(token, "h-") {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, token := range classTokens(n) {
		if token == class {
			return true
		}
	}
	return false
}

func classTokens(n *html.Node) []string {
	if n.Type != html.ElementNode {
		return nil
	}
	return strings.Fields(attr(n, "class"))
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&buf, c)
	}
	return buf.String()
}
